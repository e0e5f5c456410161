package site

import (
	"errors"
	"testing"
)

func TestDisplayName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, handle, want string
	}{
		{"Deutsche Welle", "", "Deutsche Welle"},
		{"Deutsche Welle", "@dwnews", "Deutsche Welle (@dwnews)"},
		{"Deutsche Welle", "dwnews", "Deutsche Welle (@dwnews)"},
		{"Deutsche Welle", "  ", "Deutsche Welle"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.name, tt.handle); got != tt.want {
			t.Fatalf("DisplayName(%q, %q) = %q, want %q", tt.name, tt.handle, got, tt.want)
		}
	}
}

func TestSnapshotValidate(t *testing.T) {
	t.Parallel()
	if err := (Snapshot{{Name: "a"}, {Name: "b"}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Snapshot{{Name: "a"}, {Name: "a"}}).Validate(); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if err := (Snapshot{{Name: " "}}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestSnapshotIndexKeepsFirstDuplicate(t *testing.T) {
	t.Parallel()
	snap := Snapshot{{Name: "Gazette", Grade: "A", Score: 90}, {Name: "Gazette", Grade: "F", Score: 10}}
	if got := snap.Index()["Gazette"]; got.Grade != "A" || got.Score != 90 {
		t.Fatalf("Index kept %+v, want the first record", got)
	}
}

func TestAvailableOverHTTPS(t *testing.T) {
	t.Parallel()
	if (Record{ValidHTTPS: true, DowngradesHTTPS: true}).AvailableOverHTTPS() {
		t.Fatal("downgrading site reported available")
	}
	if !(Record{ValidHTTPS: true}).AvailableOverHTTPS() {
		t.Fatal("valid non-downgrading site reported unavailable")
	}
}
