package merrors

import (
	"errors"
	"testing"
)

func TestWrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(AdapterError, "rebase failed", cause)

	if !Is(err, AdapterError) {
		t.Fatal("expected Is(err, AdapterError) to be true")
	}
	if Is(err, Validation) {
		t.Fatal("expected Is(err, Validation) to be false")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestIsTransientText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"pane not found", true},
		{"ERROR: Session Not Found for target", true},
		{"fatal: could not read from remote repository", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTransientText(tt.text); got != tt.want {
			t.Errorf("IsTransientText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
