package importer

import "strings"

// normalizeAmount rewrites a spreadsheet amount into the plain "1234.56" form
// ParseLineItem expects. Currency symbols and spaces are dropped.
//
// When both separators appear the last one is the decimal mark. A lone comma
// is a decimal mark in European sheets or when followed by one or two digits.
// A lone dot in a European sheet is a thousands mark only in "1.234" form.
func normalizeAmount(s string, european bool) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}

		return -1
	}, s)

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(clean, ".", ""), ",", ".")
		}

		return strings.ReplaceAll(clean, ",", "")
	case lastComma >= 0:
		decimals := len(clean) - lastComma - 1
		if european || (strings.Count(clean, ",") == 1 && decimals <= 2) {
			return strings.ReplaceAll(clean, ",", ".")
		}

		return strings.ReplaceAll(clean, ",", "")
	case lastDot >= 0 && european && thousandsGrouped(clean, "."):
		return strings.ReplaceAll(clean, ".", "")
	}

	return clean
}

// thousandsGrouped reports whether every group after the first separator has
// exactly three digits, as in "1.234.567".
func thousandsGrouped(s, sep string) bool {
	groups := strings.Split(s, sep)
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}

	return len(groups) > 1
}
