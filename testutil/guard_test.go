package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"example.com/mod/internal/x", true},
		{"example.com/mod/pkg/x", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestBackendImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"inventoryrecord/internal/infra/persistence/local", true},
		{"inventoryrecord/internal/blob", true},
		{"inventoryrecord/internal/blob/core", false},
		{"inventoryrecord/pkg/domain", false},
	}
	for _, c := range cases {
		if got := BackendImportForbidden(c.in); got != c.want {
			t.Fatalf("BackendImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInfraImportForbiddenPredicate(t *testing.T) {
	if !InfraImportForbidden("inventoryrecord/internal/infra/blob/s3") {
		t.Fatalf("expected infra driver to match")
	}
	if InfraImportForbidden("inventoryrecord/internal/blob") {
		t.Fatalf("blob facade must not match")
	}
}

func TestThirdPartyImportForbiddenPredicate(t *testing.T) {
	pred := ThirdPartyImportForbidden("inventoryrecord")
	cases := []struct {
		in   string
		want bool
	}{
		{"encoding/json", false},
		{"inventoryrecord/pkg/domain", false},
		{"github.com/spf13/viper", true},
		{"modernc.org/sqlite", true},
	}
	for _, c := range cases {
		if got := pred(c.in); got != c.want {
			t.Fatalf("ThirdPartyImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAnyOf(t *testing.T) {
	pred := AnyOf(func(p string) bool { return p == "a" }, func(p string) bool { return p == "b" })
	if !pred("a") || !pred("b") || pred("c") {
		t.Fatalf("AnyOf did not combine predicates")
	}
}

// TestAssertNoDirectImports exercises the success path by creating a tiny temp package with safe imports.
func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport _ \"example.com/mod/internal/x\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\nimport _ \"example.com/mod/internal/y\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "internal/x") {
		t.Fatalf("expected one violation from non-test file, got %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "reason", viols)
	if !strings.Contains(rec.msg, "reason") {
		t.Fatalf("expected failure message, got %q", rec.msg)
	}
}

func TestDirectImportViolationsBadDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}
