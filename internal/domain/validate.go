package domain

import (
	"fmt"
	"regexp"
)

// Maximum lengths for free-text fields. These bound storage growth,
// nothing downstream depends on them semantically.
const (
	MaxNameLen     = 50
	MaxPhoneLen    = 20
	MaxCompanyLen  = 100
	MaxPositionLen = 100
	MaxAddressLen  = 200
	MaxNotesLen    = 500
)

var (
	// local@domain.tld, no whitespace, exactly one @.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Permissive: digits, spaces, parentheses, plus sign and hyphens.
	phoneRe = regexp.MustCompile(`^\+?[0-9()\s-]+$`)
)

// Rules holds the configurable knobs of contact validation.
type Rules struct {
	// NameMinLen is the minimum length of first/last name after
	// trimming. Values below 1 are treated as 1.
	NameMinLen int
}

// DefaultRules matches the strictest form the app ships with.
func DefaultRules() Rules {
	return Rules{NameMinLen: 2}
}

func (r Rules) nameMin() int {
	if r.NameMinLen < 1 {
		return 1
	}
	return r.NameMinLen
}

// Validate checks a candidate's fields against the rules and reports
// every violation together. It is pure: the email uniqueness check is a
// separate repository query that runs only after this passes.
// A nil return means the candidate is syntactically valid.
func Validate(f ContactFields, rules Rules) *ValidationError {
	f = f.Normalize()
	verr := &ValidationError{}
	min := rules.nameMin()

	validateName(verr, "firstName", "First name", f.FirstName, min)
	validateName(verr, "lastName", "Last name", f.LastName, min)

	switch {
	case f.Email == "":
		verr.add("email", "Email is required")
	case !emailRe.MatchString(f.Email):
		verr.add("email", "Please enter a valid email address")
	}

	if f.Phone != "" {
		if !phoneRe.MatchString(f.Phone) {
			verr.add("phone", "Please enter a valid phone number")
		} else if len(f.Phone) > MaxPhoneLen {
			verr.add("phone", fmt.Sprintf("Phone must be at most %d characters", MaxPhoneLen))
		}
	}

	validateLen(verr, "company", "Company", f.Company, MaxCompanyLen)
	validateLen(verr, "position", "Position", f.Position, MaxPositionLen)
	validateLen(verr, "address", "Address", f.Address, MaxAddressLen)
	validateLen(verr, "notes", "Notes", f.Notes, MaxNotesLen)

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func validateName(verr *ValidationError, field, label, value string, min int) {
	switch {
	case value == "":
		verr.add(field, label+" is required")
	case len([]rune(value)) < min:
		verr.add(field, fmt.Sprintf("%s must be at least %d characters", label, min))
	case len([]rune(value)) > MaxNameLen:
		verr.add(field, fmt.Sprintf("%s must be at most %d characters", label, MaxNameLen))
	}
}

func validateLen(verr *ValidationError, field, label, value string, max int) {
	if len([]rune(value)) > max {
		verr.add(field, fmt.Sprintf("%s must be at most %d characters", label, max))
	}
}
