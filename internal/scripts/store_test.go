/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package scripts

import (
	"reflect"
	"testing"

	"etlvalid/internal/errs"
)

func TestSaveCollisionSuffixes(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, 3)
	for i := range names {
		name, err := s.Save("validation_completeness", "SELECT 1;")
		if err != nil {
			t.Fatal(err)
		}
		names[i] = name
	}

	want := []string{
		"validation_completeness.sql",
		"validation_completeness_1.sql",
		"validation_completeness_2.sql",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("saved names = %v, want %v", names, want)
	}
}

func TestSaveReadRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	name, err := s.Save("check", "SELECT COUNT(*) FROM orders;")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(name)
	if err != nil {
		t.Fatal(err)
	}
	if got != "SELECT COUNT(*) FROM orders;" {
		t.Errorf("content = %q", got)
	}
}

func TestListOnlySQLFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("b_check", "SELECT 2;"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("a_check", "SELECT 1;"); err != nil {
		t.Fatal(err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a_check.sql", "b_check.sql"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("list = %v, want %v", names, want)
	}
}

func TestReadRejectsPathEscape(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("../secrets.sql"); !errs.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestReadMissingScript(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("nope.sql"); !errs.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestParseOutputMode(t *testing.T) {
	for _, ok := range []string{"", "show", "save", "execute"} {
		if _, err := ParseOutputMode(ok); err != nil {
			t.Errorf("ParseOutputMode(%q) unexpected error: %v", ok, err)
		}
	}
	if _, err := ParseOutputMode("interactive"); !errs.IsConfig(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
