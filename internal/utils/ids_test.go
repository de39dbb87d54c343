package utils

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	valid := map[string]int64{"1": 1, " 42 ": 42, "9007199254740993": 9007199254740993}
	for in, want := range valid {
		got, err := ParseID(in)
		if err != nil || got != want {
			t.Fatalf("ParseID(%q)=%d,%v want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "0", "-3", "abc", "1.5", "99999999999999999999"} {
		if _, err := ParseID(in); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ParseID(%q): expected ErrInvalidID, got %v", in, err)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8") {
		t.Fatalf("expected valid uuid")
	}
	if IsUUID("42") {
		t.Fatalf("expected invalid uuid")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "go", "rust"); got != "go" {
		t.Fatalf("got %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("got %q", got)
	}
}
