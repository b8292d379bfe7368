// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	if err := Wrap(nil, "test.cue"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}

	cause := errors.New("some error")
	err := Wrap(cause, "test.cue")
	if got, want := err.Error(), "test.cue: some error"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("Wrap() does not unwrap to its cause")
	}
}

func TestSchemaError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		issues []Issue
		want   string
	}{
		{name: "no path", issues: []Issue{{Message: "expected '}'"}}, want: "a.cue: expected '}'"},
		{name: "one issue", issues: []Issue{{Path: "module.name", Message: "incomplete value string"}}, want: "a.cue: module.name: incomplete value string"},
		{
			name:   "several issues",
			issues: []Issue{{Path: "x", Message: "m1"}, {Path: "y[0]", Message: "m2"}},
			want:   "a.cue: 2 problems:\n  x: m1\n  y[0]: m2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := &SchemaError{File: "a.cue", Issues: tt.issues}
			if got := err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sels []string
		want string
	}{
		{name: "empty path", sels: nil, want: ""},
		{name: "single element", sels: []string{"module"}, want: "module"},
		{name: "nested path", sels: []string{"module", "options"}, want: "module.options"},
		{name: "array index", sels: []string{"module", "names", "0"}, want: "module.names[0]"},
		{name: "leading number is a label", sels: []string{"0", "name"}, want: "0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := jsonPath(tt.sels); got != tt.want {
				t.Errorf("jsonPath(%v) = %q, want %q", tt.sels, got, tt.want)
			}
		})
	}
}

func TestCheckSize(t *testing.T) {
	t.Parallel()

	if err := CheckSize(make([]byte, MaxFileSize), "test.cue"); err != nil {
		t.Errorf("data at exact limit: %v", err)
	}
	err := CheckSize(make([]byte, MaxFileSize+1), "test.cue")
	if !errors.Is(err, ErrTooLarge) || !strings.HasPrefix(err.Error(), "test.cue: ") {
		t.Errorf("data exceeding limit: %v", err)
	}
}
