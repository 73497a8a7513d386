package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleFields() EntryFormData {
	return EntryFormData{
		FieldName:       "Ann",
		FieldEmail:      "a@x.com",
		FieldPhone:      "555-0100",
		FieldAddress:    "1 Main St",
		FieldCity:       "Springfield",
		FieldState:      "IL",
		FieldZip:        "62701",
		FieldCountry:    "US",
		FieldCompany:    "Acme",
		FieldPosition:   "Engineer",
		FieldDepartment: "R&D",
		FieldStartDate:  "2024-01-02",
		FieldSalary:     "100000",
		FieldNotes:      "none",
		FieldStatus:     "active",
	}
}

func TestFieldNamesOrderAndCopy(t *testing.T) {
	names := FieldNames()
	if len(names) != 15 {
		t.Fatalf("expected 15 fields, got %d", len(names))
	}
	if names[0] != FieldName || names[len(names)-1] != FieldStatus {
		t.Fatalf("unexpected order: %v", names)
	}
	names[0] = "mutated"
	if FieldNames()[0] != FieldName {
		t.Fatalf("FieldNames must return a copy")
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"name":      "Name",
		"startDate": "StartDate",
		"":          "",
	}
	for in, want := range cases {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	fields := sampleFields()
	if err := fields.Validate(); err != nil {
		t.Fatalf("expected valid fields, got %v", err)
	}
	fields[FieldEmail] = "  "
	delete(fields, FieldStatus)
	err := fields.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !reflect.DeepEqual(verr.Missing, []string{FieldEmail, FieldStatus}) {
		t.Fatalf("unexpected missing list: %v", verr.Missing)
	}
	if !strings.Contains(err.Error(), "email, status") {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestNormalizeFillsFieldsAndDropsID(t *testing.T) {
	got := EntryFormData{FieldName: "Bob", FieldID: "x"}.Normalize()
	if _, ok := got[FieldID]; ok {
		t.Fatalf("id must be dropped")
	}
	for _, f := range FieldNames() {
		if _, ok := got[f]; !ok {
			t.Fatalf("field %s missing after normalize", f)
		}
	}
	if got[FieldName] != "Bob" {
		t.Fatalf("name lost: %v", got)
	}
}

func TestMergeOverlaysWithoutID(t *testing.T) {
	base := sampleFields()
	merged := base.Merge(EntryFormData{FieldStatus: "inactive", FieldID: "nope"})
	if merged[FieldStatus] != "inactive" {
		t.Fatalf("expected overlay, got %q", merged[FieldStatus])
	}
	if _, ok := merged[FieldID]; ok {
		t.Fatalf("merge must not carry ids")
	}
	if base[FieldStatus] != "active" {
		t.Fatalf("merge mutated receiver")
	}
	if got := EntryFormData(nil).Merge(EntryFormData{FieldName: "x"}); got[FieldName] != "x" {
		t.Fatalf("merge over nil: %v", got)
	}
}

func TestEntryKeysPutExtrasLast(t *testing.T) {
	e := NewEntry("1", EntryFormData{"zeta": "z", "alpha": "a"})
	keys := e.Keys()
	if keys[0] != FieldID || keys[1] != FieldName {
		t.Fatalf("unexpected leading keys: %v", keys[:2])
	}
	tail := keys[len(keys)-2:]
	if !reflect.DeepEqual(tail, []string{"alpha", "zeta"}) {
		t.Fatalf("extras must sort last: %v", tail)
	}
	if got := e.Values([]string{FieldID, "alpha"}); !reflect.DeepEqual(got, []string{"1", "a"}) {
		t.Fatalf("values: %v", got)
	}
}

func TestEntryMarshalJSONIsFlatAndOrdered(t *testing.T) {
	e := NewEntry("42", sampleFields())
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, `{"id":"42","name":"Ann","email":"a@x.com"`) {
		t.Fatalf("unexpected encoding: %s", s)
	}
	var back Entry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, e) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", back, e)
	}
}

func TestEntryUnmarshalAcceptsNumericScalars(t *testing.T) {
	raw := `[{"id":1712345678901,"name":"Ann","salary":55000,"zip":null,"active":true}]`
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := entries[0]
	if e.ID != "1712345678901" {
		t.Fatalf("numeric id not preserved: %q", e.ID)
	}
	if e.Get(FieldSalary) != "55000" {
		t.Fatalf("numeric field not preserved: %q", e.Get(FieldSalary))
	}
	if v, ok := e.Fields[FieldZip]; !ok || v != "" {
		t.Fatalf("null should decode to empty string, got %q %v", v, ok)
	}
	if e.Get("active") != "true" {
		t.Fatalf("bool scalar: %q", e.Get("active"))
	}
	if _, ok := e.Fields[FieldStatus]; !ok {
		t.Fatalf("absent fixed fields must be present after decode")
	}
}

func TestEntryUnmarshalRejectsNestedValues(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`{"id":"1","name":{"first":"Ann"}}`), &e); err == nil {
		t.Fatalf("expected nested value error")
	}
	if err := json.Unmarshal([]byte(`{"id":[1]}`), &e); err == nil {
		t.Fatalf("expected nested id error")
	}
}

func TestFindEntry(t *testing.T) {
	entries := []Entry{NewEntry("a", nil), NewEntry("b", nil)}
	if got, ok := FindEntry(entries, "b"); !ok || got.ID != "b" {
		t.Fatalf("expected b, got %v %v", got, ok)
	}
	if _, ok := FindEntry(entries, "c"); ok {
		t.Fatalf("expected miss")
	}
}

func TestErrorKinds(t *testing.T) {
	nf := NotFoundError{ID: "7"}
	if !errors.Is(nf, ErrNotFound) || nf.Error() != "entry 7 not found" {
		t.Fatalf("not found error: %v", nf)
	}
	cause := errors.New("disk on fire")
	unavailable := Unavailable(cause)
	if !errors.Is(unavailable, ErrStoreUnavailable) || !errors.Is(unavailable, cause) {
		t.Fatalf("unavailable must wrap both: %v", unavailable)
	}
	if !errors.Is(Unavailable(nil), ErrStoreUnavailable) {
		t.Fatalf("nil cause")
	}
	failed := WriteFailed(cause)
	if !errors.Is(failed, ErrWriteFailed) || !errors.Is(failed, cause) {
		t.Fatalf("write failed must wrap both: %v", failed)
	}
	if got := WriteFailed(nf); !errors.Is(got, ErrNotFound) || errors.Is(got, ErrWriteFailed) {
		t.Fatalf("not found must pass through WriteFailed: %v", got)
	}
	if !errors.Is(WriteFailed(nil), ErrWriteFailed) {
		t.Fatalf("nil cause")
	}
}
