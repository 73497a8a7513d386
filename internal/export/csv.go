// Package export renders entries as CSV, either the whole collection or a
// single entry.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode"
	"unicode/utf8"

	"inventoryrecord/pkg/domain"
)

// Quoting selects how field values are escaped.
type Quoting string

const (
	// QuotingRFC4180 quotes values containing commas, quotes or newlines.
	QuotingRFC4180 Quoting = "rfc4180"
	// QuotingNone joins raw values with commas. Embedded separators corrupt
	// the output; it exists for byte-compatibility with earlier exports.
	QuotingNone Quoting = "none"
)

const (
	// ContentType is the media type of every export.
	ContentType = "text/csv; charset=utf-8"
	// AllFilename names the collection export.
	AllFilename = "all_data.csv"
)

// ParseQuoting validates a configured quoting mode; empty selects rfc4180.
func ParseQuoting(s string) (Quoting, error) {
	switch q := Quoting(strings.ToLower(strings.TrimSpace(s))); q {
	case "", QuotingRFC4180:
		return QuotingRFC4180, nil
	case QuotingNone:
		return QuotingNone, nil
	default:
		return "", fmt.Errorf("unknown csv quoting %q", s)
	}
}

// CollectionTable returns the header and rows of a collection export. The
// header is the key set of the first entry; an empty collection yields the
// canonical key set and no rows.
func CollectionTable(entries []domain.Entry) ([]string, [][]string) {
	if len(entries) == 0 {
		return append([]string{domain.FieldID}, domain.FieldNames()...), nil
	}
	header := entries[0].Keys()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = e.Values(header)
	}
	return header, rows
}

// EntryTable returns the header and row of a single-entry export, using the
// fixed field list rather than the entry's own key set.
func EntryTable(entry domain.Entry) ([]string, []string) {
	header := domain.FieldNames()
	return header, entry.Values(header)
}

// EntryFilename names a single-entry export after the entry's name, reduced
// to a filename-safe character set.
func EntryFilename(entry domain.Entry) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(entry.Name()) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "entry"
	}
	return name + "_data.csv"
}

// Disposition builds the Content-Disposition value for an attachment. The
// quoted filename is ASCII only; names with other letters also carry the
// RFC 5987 filename* form so clients can restore them.
func Disposition(filename string) string {
	var ascii strings.Builder
	plain := true
	for _, r := range filename {
		if r < utf8.RuneSelf && r != '"' && r != '\\' && unicode.IsPrint(r) {
			ascii.WriteRune(r)
			continue
		}
		plain = false
		ascii.WriteRune('_')
	}
	value := `attachment; filename="` + ascii.String() + `"`
	if plain {
		return value
	}
	ext := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if rest, ok := strings.CutPrefix(ext, "attachment"); ok {
		value += rest
	}
	return value
}

// Writer encodes tables with a fixed quoting mode.
type Writer struct {
	Quoting Quoting
}

// NewWriter returns a Writer for q; an empty q selects rfc4180.
func NewWriter(q Quoting) Writer {
	if q == "" {
		q = QuotingRFC4180
	}
	return Writer{Quoting: q}
}

// WriteCollection writes the collection export of entries to w.
func (cw Writer) WriteCollection(w io.Writer, entries []domain.Entry) error {
	header, rows := CollectionTable(entries)
	return cw.write(w, header, rows)
}

// WriteEntry writes the single-entry export of entry to w.
func (cw Writer) WriteEntry(w io.Writer, entry domain.Entry) error {
	header, row := EntryTable(entry)
	return cw.write(w, header, [][]string{row})
}

func (cw Writer) write(w io.Writer, header []string, rows [][]string) error {
	if cw.Quoting == QuotingNone {
		lines := make([]string, 0, len(rows)+1)
		lines = append(lines, strings.Join(header, ","))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, ","))
		}
		_, err := io.WriteString(w, strings.Join(lines, "\n"))
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
