package respond

import (
	"net/http"

	"golang.org/x/text/language"
)

var locales = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
	language.Arabic,
	language.Swahili,
})

// Locale picks the display language from the Accept-Language header.
func Locale(r *http.Request) language.Tag {
	tag, _ := language.MatchStrings(locales, r.Header.Get("Accept-Language"))
	return tag
}
