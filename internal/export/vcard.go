package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/rolodexhq/rolodex/internal/domain"
)

// vCard 3.0 requires CRLF line endings.
const crlf = "\r\n"

// VCard renders one contact as a vCard 3.0 entry. Optional properties
// are omitted when the contact has no value for them.
func VCard(c *domain.Contact) string {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCARD")
	writeLine(&b, "VERSION:3.0")
	writeLine(&b, "FN:"+escapeVCard(c.FullName()))
	writeLine(&b, fmt.Sprintf("N:%s;%s;;;", escapeVCard(c.LastName), escapeVCard(c.FirstName)))
	writeLine(&b, "EMAIL;TYPE=INTERNET:"+escapeVCard(c.Email))
	if c.Phone != "" {
		writeLine(&b, "TEL;TYPE=VOICE:"+escapeVCard(c.Phone))
	}
	if c.Company != "" {
		writeLine(&b, "ORG:"+escapeVCard(c.Company))
	}
	if c.Position != "" {
		writeLine(&b, "TITLE:"+escapeVCard(c.Position))
	}
	if c.Address != "" {
		writeLine(&b, "ADR;TYPE=WORK:;;"+escapeVCard(c.Address)+";;;;")
	}
	if c.Notes != "" {
		writeLine(&b, "NOTE:"+escapeVCard(c.Notes))
	}
	if len(c.Tags) > 0 {
		cats := make([]string, len(c.Tags))
		for i, t := range c.Tags {
			cats[i] = escapeVCard(t)
		}
		writeLine(&b, "CATEGORIES:"+strings.Join(cats, ","))
	}
	writeLine(&b, "END:VCARD")
	return b.String()
}

// WriteVCards writes every contact as a consecutive vCard entry.
func WriteVCards(w io.Writer, contacts []*domain.Contact) error {
	for _, c := range contacts {
		if _, err := io.WriteString(w, VCard(c)); err != nil {
			return fmt.Errorf("failed to write vcard: %w", err)
		}
	}
	return nil
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString(crlf)
}

// escapeVCard escapes the characters RFC 2426 reserves in property
// values.
func escapeVCard(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
