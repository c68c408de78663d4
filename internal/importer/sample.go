package importer

import (
	"bytes"
	"encoding/csv"
)

// SampleCSV returns a downloadable template whose headers the mapping
// proposal recognizes out of the box.
func SampleCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll([][]string{
		{"First Name", "Last Name", "Email", "Phone", "Company", "Position", "Address", "Notes", "Tags"},
		{"John", "Doe", "john.doe@example.com", "+1-555-0123", "Tech Solutions Inc.", "Software Engineer", "123 Main St, New York, NY 10001", "Key contact for platform work", "client;tech;vip"},
		{"Jane", "Smith", "jane.smith@example.com", "+1-555-0124", "Design Studio Pro", "UI/UX Designer", "456 Oak Ave, Los Angeles, CA 90210", "Product strategy lead", "partner;product"},
	})
	w.Flush()
	return buf.Bytes()
}
