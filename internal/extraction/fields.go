package extraction

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
)

var (
	datePattern = regexp.MustCompile(`(?:^|\D)(\d{1,2}[/-]\d{1,2}[/-]\d{4})`)

	labeledDOBPattern = regexp.MustCompile(
		`(?i)(?:date\s*of\s*birth|\bdob|जन्म\s*तिथि|जन्म\s*तारीख|जन्म\s*दिनांक)\s*[:/]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`)

	// dates that are explicitly something other than a birth date
	nonBirthDatePattern = regexp.MustCompile(
		`(?i)(?:(?:issue|download|print|generation)\s*date|issued|downloaded|printed|generated|जारी\s*करने\s*की\s*तिथि)\s*(?:on)?\s*[:/]?\s*$`)

	femalePattern        = regexp.MustCompile(`(?i)\bfemale\b|महिला`)
	malePattern          = regexp.MustCompile(`(?i)\bmale\b|पुरुष`)
	genderKeywordPattern = regexp.MustCompile(`(?i)\bfemale\b|\bmale\b|महिला|पुरुष`)
	labeledGenderPattern = regexp.MustCompile(`(?i)(?:\bgender|लिंग)\s*[:/]?\s*(female|male|महिला|पुरुष)`)
	anyGenderPattern     = regexp.MustCompile(`(?i)female|male|महिला|पुरुष`)
)

type dateToken struct {
	value      string
	start, end int
}

// scanDates returns every D/M/YYYY or D-M-YYYY token not embedded in a longer digit run
func scanDates(text string) []dateToken {
	var out []dateToken
	for _, m := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if end < len(text) && isDigit(text[end]) {
			continue
		}
		out = append(out, dateToken{value: text[start:end], start: start, end: end})
	}
	return out
}

// labeledDOB returns the first valid date following a birth date label
func labeledDOB(text string, maxYear int) string {
	for _, m := range labeledDOBPattern.FindAllStringSubmatch(text, -1) {
		if d, err := identity.ParseDateWithin(m[1], maxYear); err == nil {
			return d.String()
		}
	}
	return ""
}

// genderAdjacentDOB returns the first valid date within window characters
// after a gender keyword
func genderAdjacentDOB(text string, window, maxYear int) string {
	for _, loc := range genderKeywordPattern.FindAllStringIndex(text, -1) {
		for _, tok := range scanDates(after(text, loc[1], window)) {
			if d, err := identity.ParseDateWithin(tok.value, maxYear); err == nil {
				return d.String()
			}
		}
	}
	return ""
}

// standaloneDOB returns the first valid date not labelled as an issue,
// download or print date
func standaloneDOB(text string, maxYear int) string {
	for _, tok := range scanDates(text) {
		if nonBirthDatePattern.MatchString(lineBefore(text, tok.start)) {
			continue
		}
		if d, err := identity.ParseDateWithin(tok.value, maxYear); err == nil {
			return d.String()
		}
	}
	return ""
}

// firstDOB returns the first valid date anywhere in text
func firstDOB(text string, maxYear int) string {
	for _, tok := range scanDates(text) {
		if d, err := identity.ParseDateWithin(tok.value, maxYear); err == nil {
			return d.String()
		}
	}
	return ""
}

// contextualDOB runs the label, gender-adjacency and standalone searches in order
func contextualDOB(text string, window, maxYear int) string {
	if dob := labeledDOB(text, maxYear); dob != "" {
		return dob
	}
	if dob := genderAdjacentDOB(text, window, maxYear); dob != "" {
		return dob
	}
	return standaloneDOB(text, maxYear)
}

// labeledGender reads a gender directly following a gender label
func labeledGender(text string) string {
	m := labeledGenderPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return normalizeGender(m[1])
}

// detectGender looks for female terms before male terms
func detectGender(text string) string {
	switch {
	case femalePattern.MatchString(text):
		return identity.Female
	case malePattern.MatchString(text):
		return identity.Male
	}
	return identity.NotSpecified
}

// anyGender takes the first gender token, whole word or not
func anyGender(text string) string {
	if tok := anyGenderPattern.FindString(text); tok != "" {
		return normalizeGender(tok)
	}
	return identity.NotSpecified
}

func normalizeGender(token string) string {
	switch t := strings.ToLower(token); {
	case t == "female" || t == "महिला":
		return identity.Female
	case t == "male" || t == "पुरुष":
		return identity.Male
	}
	return identity.NotSpecified
}
