package identity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Birth year bounds
const (
	MinBirthYear        = 1900
	DefaultMaxBirthYear = 2025
)

var (
	datePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	namePattern = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// ValidIDStructure applies the structural ID number rules without the checksum
func ValidIDStructure(s string) error {
	if len(s) != 12 {
		return &ValidationError{Field: "aadhaar", Value: s, Reason: "must be exactly 12 digits"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return &ValidationError{Field: "aadhaar", Value: s, Reason: "must contain digits only"}
		}
	}
	if strings.Count(s, s[:1]) == len(s) {
		if s[0] == '0' {
			return &ValidationError{Field: "aadhaar", Value: s, Reason: "cannot be all zeros"}
		}
		return &ValidationError{Field: "aadhaar", Value: s, Reason: "cannot be a single repeated digit"}
	}
	if s[0] == '0' || s[0] == '1' {
		return &ValidationError{Field: "aadhaar", Value: s, Reason: "cannot start with 0 or 1"}
	}
	return nil
}

// ValidateIDNumber applies the structural rules and the Verhoeff checksum
func ValidateIDNumber(s string) error {
	if err := ValidIDStructure(s); err != nil {
		return err
	}
	if !VerhoeffValid(s) {
		return &ValidationError{Field: "aadhaar", Value: s, Reason: "checksum mismatch"}
	}
	return nil
}

// Date is a calendar date as printed on the document
type Date struct {
	Day   int
	Month int
	Year  int
}

// String formats the date as DD/MM/YYYY
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// ParseDate parses D/M/YYYY or D-M-YYYY with the default birth year bounds
func ParseDate(s string) (Date, error) {
	return ParseDateWithin(s, DefaultMaxBirthYear)
}

// ParseDateWithin parses D/M/YYYY or D-M-YYYY, accepting years from
// MinBirthYear to maxYear. Day and month are range-checked independently.
func ParseDateWithin(s string, maxYear int) (Date, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, &ValidationError{Field: "dob", Value: s, Reason: "expected DD/MM/YYYY or DD-MM-YYYY"}
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	switch {
	case day < 1 || day > 31:
		return Date{}, &ValidationError{Field: "dob", Value: s, Reason: "day out of range"}
	case month < 1 || month > 12:
		return Date{}, &ValidationError{Field: "dob", Value: s, Reason: "month out of range"}
	case year < MinBirthYear || year > maxYear:
		return Date{}, &ValidationError{
			Field:  "dob",
			Value:  s,
			Reason: fmt.Sprintf("year outside %d-%d", MinBirthYear, maxYear),
		}
	}

	return Date{Day: day, Month: month, Year: year}, nil
}

// ValidName checks that name looks like a person's name: 4 to 50 characters,
// two to four words of Latin letters, no denylisted word or phrase
func ValidName(name string, deny Denylist) error {
	if len(name) < 4 || len(name) > 50 {
		return &ValidationError{Field: "name", Value: name, Reason: "length must be 4-50 characters"}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Field: "name", Value: name, Reason: "letters and spaces only"}
	}

	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return &ValidationError{Field: "name", Value: name, Reason: "must have 2-4 words"}
	}
	for i := range words {
		if n := deny.Match(words, i); n > 0 {
			denied := strings.Join(words[i:i+n], " ")
			return &ValidationError{Field: "name", Value: name, Reason: fmt.Sprintf("%q is not a name word", denied)}
		}
	}
	return nil
}
