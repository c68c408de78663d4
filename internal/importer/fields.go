package importer

import "strings"

// Field identifies a contact field an import column can map onto.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldCompany   Field = "company"
	FieldPosition  Field = "position"
	FieldAddress   Field = "address"
	FieldNotes     Field = "notes"
	FieldTags      Field = "tags"
)

// RequiredFields must each have a mapped source column before an
// import may run.
var RequiredFields = []Field{FieldFirstName, FieldLastName, FieldEmail}

// Labels for mapping errors and the sample file header.
var fieldLabels = map[Field]string{
	FieldFirstName: "First Name",
	FieldLastName:  "Last Name",
	FieldEmail:     "Email",
	FieldPhone:     "Phone",
	FieldCompany:   "Company",
	FieldPosition:  "Position",
	FieldAddress:   "Address",
	FieldNotes:     "Notes",
	FieldTags:      "Tags",
}

// Label returns the human-readable name of a field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Valid reports whether f is a known mapping target.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// GuessField proposes a mapping target for a header cell by
// case-insensitive substring matching, or "" when nothing fits.
func GuessField(header string) Field {
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "first") && strings.Contains(h, "name"):
		return FieldFirstName
	case strings.Contains(h, "last") && strings.Contains(h, "name"):
		return FieldLastName
	case strings.Contains(h, "email"):
		return FieldEmail
	case strings.Contains(h, "phone"):
		return FieldPhone
	case strings.Contains(h, "company"):
		return FieldCompany
	case strings.Contains(h, "position") || strings.Contains(h, "title"):
		return FieldPosition
	case strings.Contains(h, "address"):
		return FieldAddress
	case strings.Contains(h, "note"):
		return FieldNotes
	case strings.Contains(h, "tag"):
		return FieldTags
	default:
		return ""
	}
}
