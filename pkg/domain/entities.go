// Package domain defines the entry record, its fixed field schema, and the
// persistence contract implemented by every entry store backend.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldID is the serialized key holding an entry's identifier.
const FieldID = "id"

// Fixed entry fields in display and export order.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldState      = "state"
	FieldZip        = "zip"
	FieldCountry    = "country"
	FieldCompany    = "company"
	FieldPosition   = "position"
	FieldDepartment = "department"
	FieldStartDate  = "startDate"
	FieldSalary     = "salary"
	FieldNotes      = "notes"
	FieldStatus     = "status"
)

var fieldNames = []string{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldAddress,
	FieldCity,
	FieldState,
	FieldZip,
	FieldCountry,
	FieldCompany,
	FieldPosition,
	FieldDepartment,
	FieldStartDate,
	FieldSalary,
	FieldNotes,
	FieldStatus,
}

// FieldNames returns the fixed entry fields in display order. The returned
// slice is a copy and may be modified by the caller.
func FieldNames() []string {
	return append([]string(nil), fieldNames...)
}

// IsField reports whether name is one of the fixed entry fields.
func IsField(name string) bool {
	for _, f := range fieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// Label renders a field name for display: the first letter is upper-cased
// and the remainder is left untouched ("startDate" becomes "StartDate").
func Label(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToUpper(r)) + field[size:]
}

// EntryFormData holds an entry's field values without its identifier.
type EntryFormData map[string]string

// Get returns the value of field, or the empty string when it is absent.
func (d EntryFormData) Get(field string) string {
	if d == nil {
		return ""
	}
	return d[field]
}

// Clone returns an independent copy of the form data.
func (d EntryFormData) Clone() EntryFormData {
	if d == nil {
		return nil
	}
	out := make(EntryFormData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Normalize returns a copy that carries every fixed field, filling absent
// ones with the empty string, and drops any identifier key.
func (d EntryFormData) Normalize() EntryFormData {
	out := make(EntryFormData, len(fieldNames)+len(d))
	for k, v := range d {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	for _, f := range fieldNames {
		if _, ok := out[f]; !ok {
			out[f] = ""
		}
	}
	return out
}

// Merge returns the receiver overlaid with the values in over.
func (d EntryFormData) Merge(over EntryFormData) EntryFormData {
	out := d.Clone()
	if out == nil {
		out = make(EntryFormData, len(over))
	}
	for k, v := range over {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	return out
}

// Missing lists the fixed fields whose value is empty after trimming spaces.
func (d EntryFormData) Missing() []string {
	var missing []string
	for _, f := range fieldNames {
		if strings.TrimSpace(d.Get(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate enforces required-field presence for newly created entries.
func (d EntryFormData) Validate() error {
	if missing := d.Missing(); len(missing) > 0 {
		return ValidationError{Missing: missing}
	}
	return nil
}

// Keys returns the fixed fields followed by any extra keys in sorted order.
func (d EntryFormData) Keys() []string {
	keys := FieldNames()
	var extra []string
	for k := range d {
		if k == FieldID || IsField(k) {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// UnmarshalJSON accepts any scalar JSON value per field and keeps its
// literal text, so numbers written by other clients survive a round trip.
func (d *EntryFormData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(EntryFormData, len(raw))
	for k, v := range raw {
		if k == FieldID {
			continue
		}
		s, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = s
	}
	*d = out
	return nil
}

// Entry is one stored record: an immutable identifier plus its fields.
type Entry struct {
	ID     string
	Fields EntryFormData
}

// NewEntry builds an entry carrying every fixed field.
func NewEntry(id string, fields EntryFormData) Entry {
	return Entry{ID: id, Fields: fields.Normalize()}
}

// Get returns the value of field; FieldID yields the identifier.
func (e Entry) Get(field string) string {
	if field == FieldID {
		return e.ID
	}
	return e.Fields.Get(field)
}

// Name is shorthand for the name field.
func (e Entry) Name() string { return e.Fields.Get(FieldName) }

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{ID: e.ID, Fields: e.Fields.Clone()}
}

// Keys returns the entry's key set: the identifier, the fixed fields, then
// any extra keys in sorted order.
func (e Entry) Keys() []string {
	return append([]string{FieldID}, e.Fields.Keys()...)
}

// Values returns the entry's values for keys, in order.
func (e Entry) Values(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = e.Get(k)
	}
	return out
}

// MarshalJSON writes the entry as one flat object with the identifier first
// and the fields in Keys order.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Get(k))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object. The identifier may be a string or a
// number; blobs written by the browser-only release used numeric ids.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var id string
	if v, ok := raw[FieldID]; ok {
		s, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", FieldID, err)
		}
		id = s
	}
	var fields EntryFormData
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	*e = Entry{ID: id, Fields: fields.Normalize()}
	return nil
}

func scalarText(v json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return "", err
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case '{', '[':
		return "", fmt.Errorf("expected scalar value, got %s", string(trimmed[:1]))
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

// FindEntry returns the entry with id from entries.
func FindEntry(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
