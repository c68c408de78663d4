// Package seed loads starter contacts from a YAML file so a fresh
// install is not an empty screen.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

// Entry is one seed contact as declared in the YAML file.
type Entry struct {
	FirstName  string   `yaml:"firstName"`
	LastName   string   `yaml:"lastName"`
	Email      string   `yaml:"email"`
	Phone      string   `yaml:"phone,omitempty"`
	Company    string   `yaml:"company,omitempty"`
	Position   string   `yaml:"position,omitempty"`
	Address    string   `yaml:"address,omitempty"`
	Notes      string   `yaml:"notes,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	IsFavorite bool     `yaml:"isFavorite,omitempty"`
}

// Loader handles loading and parsing of the seed contacts file.
type Loader struct {
	filePath string
}

// NewLoader creates a new seed loader.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the seed file.
func (l *Loader) Load() ([]Entry, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	return entries, nil
}

// Apply creates the seed contacts in an empty repository. A repository
// that already holds contacts is left untouched so seeding stays a
// first-run concern. Returns the number of contacts created.
func Apply(ctx context.Context, repo store.Repository, entries []Entry) (int, error) {
	_, total, err := repo.List(ctx, store.ListOptions{PageSize: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to check repository before seeding: %w", err)
	}
	if total > 0 {
		return 0, nil
	}

	created := 0
	for _, e := range entries {
		fields := domain.ContactFields{
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Email:      e.Email,
			Phone:      e.Phone,
			Company:    e.Company,
			Position:   e.Position,
			Address:    e.Address,
			Notes:      e.Notes,
			Tags:       e.Tags,
			IsFavorite: e.IsFavorite,
		}
		if _, err := repo.Create(ctx, fields); err != nil {
			// A bad seed entry should not stop the rest, but a dead
			// store should.
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return created, err
			}
			continue
		}
		created++
	}
	return created, nil
}
