// Package importer turns a delimited text file into persisted contacts
// through an explicit, linear state machine:
//
//	Idle -> FileSelected -> Parsed -> Mapped -> Reviewed -> Imported
//
// The only cycle is Back(), which steps one state backwards so a user
// can correct a choice. A malformed row never aborts the batch: rows
// that fail validation or collide on email are collected as per-row
// failures in the final report.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

// State of the pipeline.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateParsed
	StateMapped
	StateReviewed
	StateImported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateParsed:
		return "parsed"
	case StateMapped:
		return "mapped"
	case StateReviewed:
		return "reviewed"
	case StateImported:
		return "imported"
	default:
		return "unknown"
	}
}

// TagDelimiter splits tag-bearing cells into individual tags.
const TagDelimiter = ";"

// ErrWrongState is returned when a transition is attempted out of
// order.
var ErrWrongState = errors.New("operation not allowed in current pipeline state")

// MappingError reports which required fields have no mapped source
// column; it blocks the Mapped -> Reviewed transition.
type MappingError struct {
	Missing []Field
}

func (e *MappingError) Error() string {
	labels := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		labels = append(labels, f.Label())
	}
	return strings.Join(labels, ", ") + " required but not mapped"
}

// RowFailure attributes one skipped row to its reason. Row is the
// 1-indexed data row number (the header is row 0).
type RowFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes a finished import.
type Report struct {
	Imported int          `json:"imported"`
	Failures []RowFailure `json:"failures"`
}

// Pipeline carries one import from file selection to persistence. It is
// not safe for concurrent use; each import gets its own pipeline.
type Pipeline struct {
	state    State
	fileName string
	raw      []byte

	headers []string
	rows    [][]string

	// mapping assigns a column index to a contact field. At most one
	// column per field wins: later SetMapping calls replace earlier
	// columns targeting the same field.
	mapping map[int]Field

	report *Report

	// batch disambiguates placeholder emails across imports.
	batch string
}

// NewPipeline returns an idle pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		state:   StateIdle,
		mapping: make(map[int]Field),
		batch:   uuid.NewString()[:8],
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State { return p.state }

// FileName returns the name of the selected file.
func (p *Pipeline) FileName() string { return p.fileName }

// Headers returns the parsed header cells.
func (p *Pipeline) Headers() []string { return p.headers }

// Rows returns the parsed data rows.
func (p *Pipeline) Rows() [][]string { return p.rows }

// Mapping returns a copy of the current column -> field assignment.
func (p *Pipeline) Mapping() map[int]Field {
	out := make(map[int]Field, len(p.mapping))
	for k, v := range p.mapping {
		out[k] = v
	}
	return out
}

// SelectFile reads the import file into memory, limited to maxBytes.
// Idle -> FileSelected.
func (p *Pipeline) SelectFile(name string, r io.Reader, maxBytes int64) error {
	if p.state != StateIdle {
		return ErrWrongState
	}
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", domain.ErrMalformedImport, maxBytes)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: file is empty", domain.ErrMalformedImport)
	}

	p.fileName = name
	p.raw = data
	p.state = StateFileSelected
	return nil
}

// Parse splits the file into a header row and data rows, trimming
// whitespace and quotes from every cell, and proposes a column mapping.
// FileSelected -> Parsed; on a malformed file the state stays at
// FileSelected.
func (p *Pipeline) Parse() error {
	if p.state != StateFileSelected {
		return ErrWrongState
	}

	reader := csv.NewReader(strings.NewReader(string(p.raw)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}

	records = dropBlankRows(records)
	if len(records) < 2 {
		return fmt.Errorf("%w: need a header row and at least one data row", domain.ErrMalformedImport)
	}

	p.headers = trimCells(records[0])
	p.rows = make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		p.rows = append(p.rows, trimCells(rec))
	}

	p.mapping = make(map[int]Field, len(p.headers))
	for i, h := range p.headers {
		if f := GuessField(h); f != "" && !p.fieldMapped(f) {
			p.mapping[i] = f
		}
	}

	p.state = StateParsed
	return nil
}

// SetMapping overrides the proposed mapping for one column. A column
// already mapped to the field elsewhere loses its assignment, so each
// field has at most one source. Allowed while Parsed or Mapped.
func (p *Pipeline) SetMapping(column int, field Field) error {
	if p.state != StateParsed && p.state != StateMapped {
		return ErrWrongState
	}
	if column < 0 || column >= len(p.headers) {
		return fmt.Errorf("column %d out of range", column)
	}
	if field == "" {
		delete(p.mapping, column)
		return nil
	}
	if !field.Valid() {
		return fmt.Errorf("unknown contact field %q", field)
	}
	for col, f := range p.mapping {
		if f == field {
			delete(p.mapping, col)
		}
	}
	p.mapping[column] = field
	return nil
}

// ConfirmMapping locks the mapping in. Parsed -> Mapped.
func (p *Pipeline) ConfirmMapping() error {
	if p.state != StateParsed {
		return ErrWrongState
	}
	p.state = StateMapped
	return nil
}

// Review checks that every required field has a mapped source column.
// Mapped -> Reviewed; a *MappingError blocks the transition and names
// the unmapped fields.
func (p *Pipeline) Review() error {
	if p.state != StateMapped {
		return ErrWrongState
	}

	var missing []Field
	for _, f := range RequiredFields {
		if !p.fieldMapped(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MappingError{Missing: missing}
	}

	p.state = StateReviewed
	return nil
}

// Run materializes every data row through the repository's create
// path. Rows that fail validation or uniqueness are reported
// individually; the batch never aborts because of one bad row.
// Reviewed -> Imported.
func (p *Pipeline) Run(ctx context.Context, repo store.Repository) (*Report, error) {
	if p.state != StateReviewed {
		return nil, ErrWrongState
	}

	report := &Report{}
	for i, row := range p.rows {
		rowNum := i + 1
		fields := p.buildFields(row, rowNum)

		if _, err := repo.Create(ctx, fields); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				// Storage going away mid-batch is not a per-row
				// condition; stop and surface it.
				return nil, err
			}
			report.Failures = append(report.Failures, RowFailure{Row: rowNum, Reason: err.Error()})
			continue
		}
		report.Imported++
	}

	p.report = report
	p.state = StateImported
	return report, nil
}

// Report returns the result of a finished import, nil before Run.
func (p *Pipeline) Report() *Report { return p.report }

// Back steps the machine one state backwards; Imported and Idle stay
// put.
func (p *Pipeline) Back() {
	switch p.state {
	case StateFileSelected:
		p.fileName, p.raw = "", nil
		p.state = StateIdle
	case StateParsed:
		p.headers, p.rows = nil, nil
		p.mapping = make(map[int]Field)
		p.state = StateFileSelected
	case StateMapped:
		p.state = StateParsed
	case StateReviewed:
		p.state = StateMapped
	}
}

// buildFields copies mapped column values into a candidate, filling
// required fields left empty with deterministic placeholders so one
// sparse row cannot sink the batch.
func (p *Pipeline) buildFields(row []string, rowNum int) domain.ContactFields {
	var f domain.ContactFields

	// Apply columns in ascending order so the result does not depend
	// on map iteration.
	cols := make([]int, 0, len(p.mapping))
	for col := range p.mapping {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	for _, col := range cols {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		switch p.mapping[col] {
		case FieldFirstName:
			f.FirstName = value
		case FieldLastName:
			f.LastName = value
		case FieldEmail:
			f.Email = value
		case FieldPhone:
			f.Phone = value
		case FieldCompany:
			f.Company = value
		case FieldPosition:
			f.Position = value
		case FieldAddress:
			f.Address = value
		case FieldNotes:
			f.Notes = value
		case FieldTags:
			f.Tags = splitTags(value)
		}
	}

	if f.FirstName == "" {
		f.FirstName = "Unknown"
	}
	if f.LastName == "" {
		f.LastName = "Contact"
	}
	if f.Email == "" {
		f.Email = fmt.Sprintf("imported-%s-%d@example.com", p.batch, rowNum)
	}
	return f
}

func (p *Pipeline) fieldMapped(field Field) bool {
	for _, f := range p.mapping {
		if f == field {
			return true
		}
	}
	return false
}

func splitTags(value string) []string {
	parts := strings.Split(value, TagDelimiter)
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.Trim(strings.TrimSpace(c), `"`)
	}
	return out
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}
