// Package identity defines the extracted identity record and the validators
// applied to its fields.
package identity

import "fmt"

// Gender values reported for an extracted identity
const (
	Male         = "Male"
	Female       = "Female"
	NotSpecified = "Not specified"
)

// ExtractedIdentity is the identity block read from an e-Aadhaar document
type ExtractedIdentity struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dob"`
	IDNumber    string `json:"aadhaar"`
	Gender      string `json:"gender"`
}

// Complete reports whether name, date of birth and ID number are all present.
// Gender always has a value and does not count.
func (e ExtractedIdentity) Complete() bool {
	return e.Name != "" && e.DateOfBirth != "" && e.IDNumber != ""
}

// Missing lists the JSON names of the required fields that are empty
func (e ExtractedIdentity) Missing() []string {
	var missing []string
	if e.Name == "" {
		missing = append(missing, "name")
	}
	if e.DateOfBirth == "" {
		missing = append(missing, "dob")
	}
	if e.IDNumber == "" {
		missing = append(missing, "aadhaar")
	}
	return missing
}

// FormattedIDNumber returns the ID number grouped as "dddd dddd dddd"
func (e ExtractedIdentity) FormattedIDNumber() string {
	if len(e.IDNumber) != 12 {
		return e.IDNumber
	}
	return e.IDNumber[:4] + " " + e.IDNumber[4:8] + " " + e.IDNumber[8:]
}

// ValidationError describes a field value that failed validation
type ValidationError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
