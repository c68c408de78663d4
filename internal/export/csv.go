// Package export renders contact collections into the interchange
// formats the app serves for download: CSV (re-importable through the
// import pipeline) and vCard 3.0.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/importer"
)

// CSVHeader is the exported header row. The column names are the ones
// the import mapping proposal recognizes, so an export round-trips.
var CSVHeader = []string{
	"First Name", "Last Name", "Email", "Phone",
	"Company", "Position", "Address", "Notes", "Tags",
}

// WriteCSV writes the contacts as comma-separated rows with a header.
// Tag sets are joined with the import pipeline's tag delimiter.
func WriteCSV(w io.Writer, contacts []*domain.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range contacts {
		row := []string{
			c.FirstName, c.LastName, c.Email, c.Phone,
			c.Company, c.Position, c.Address, c.Notes,
			strings.Join(c.Tags, importer.TagDelimiter),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
