package errors

import (
	"testing"
)

func TestNewCode(t *testing.T) {
	for _, s := range []string{
		"guard.query_rejected",
		"sandbox.query_failed",
		"config.file_read_failed",
		"progress.lesson_not_found",
		"http.invalid_query_id",
	} {
		code, err := NewCode(s)
		if err != nil {
			t.Errorf("Expected %q to parse, got %v", s, err)
		}
		if code.String() != s {
			t.Errorf("Expected %q back, got %q", s, code.String())
		}
	}

	for _, s := range []string{
		"invalid",
		"sandbox.",
		".query_failed",
		"Sandbox.query_failed",
		"sandbox.query-failed",
		"sandbox..query_failed",
		"error.query_failed",
		"sandbox.query_errored",
		"sandbox.query_failed.x1",
		"",
	} {
		if _, err := NewCode(s); err == nil {
			t.Errorf("Expected %q to be refused", s)
		}
	}
}

func TestMustNewCodePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodeEquals(t *testing.T) {
	a := MustNewCode("sandbox.table_not_found")
	b := MustNewCode("sandbox.table_not_found")
	c := MustNewCode("guard.query_rejected")

	if !a.Equals(b) {
		t.Error("Expected identical codes to be equal")
	}
	if a.Equals(c) {
		t.Error("Expected different codes to differ")
	}
	if (Code{}).String() != "" {
		t.Error("Expected the zero code to render empty")
	}
	if CommonInternal.String() != "common.internal" {
		t.Errorf("Unexpected internal code %s", CommonInternal)
	}
}
