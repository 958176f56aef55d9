package user

import (
	"unicode"
	"unicode/utf8"
)

// PasswordStrength is the result of scoring a candidate password.
type PasswordStrength struct {
	Score        int             `json:"score"`
	Label        string          `json:"label"`
	Requirements map[string]bool `json:"requirements"`
	Valid        bool            `json:"valid"`
}

const (
	reqLength    = "length"
	reqUppercase = "uppercase"
	reqLowercase = "lowercase"
	reqNumber    = "number"
	reqSpecial   = "special"

	minPasswordLength = 8
	minValidScore     = 60
)

// ScorePassword rates a password from 0 to 100. A password is accepted only
// when every requirement holds and the score reaches 60.
func ScorePassword(password string) PasswordStrength {
	reqs := map[string]bool{
		reqLength:    utf8.RuneCountInString(password) >= minPasswordLength,
		reqUppercase: false,
		reqLowercase: false,
		reqNumber:    false,
		reqSpecial:   false,
	}

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			reqs[reqUppercase] = true
		case unicode.IsLower(r):
			reqs[reqLowercase] = true
		case unicode.IsDigit(r):
			reqs[reqNumber] = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			reqs[reqSpecial] = true
		}
	}

	met := 0

	for _, ok := range reqs {
		if ok {
			met++
		}
	}

	score := met * 100 / len(reqs)

	n := utf8.RuneCountInString(password)
	if n >= 12 {
		score += 10
	}

	if n >= 16 {
		score += 10
	}

	score = min(score, 100)

	return PasswordStrength{
		Score:        score,
		Label:        strengthLabel(score),
		Requirements: reqs,
		Valid:        score >= minValidScore && met == len(reqs),
	}
}

func strengthLabel(score int) string {
	switch {
	case score <= 20:
		return "Very Weak"
	case score <= 40:
		return "Weak"
	case score <= 60:
		return "Fair"
	case score <= 80:
		return "Good"
	default:
		return "Very Strong"
	}
}
