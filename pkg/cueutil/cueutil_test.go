// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testSchema = `
#Step: {
	name:     string
	retries?: int & >=0
	enabled?: bool
}
`

type testStep struct {
	Name    string `json:"name"`
	Retries int    `json:"retries"`
	Enabled bool   `json:"enabled,omitempty"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid data decodes", func(t *testing.T) {
		t.Parallel()

		step, err := Decode[testStep]([]byte(testSchema), "#Step", []byte(`name: "build"`), "step.cue")
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if diff := cmp.Diff(testStep{Name: "build"}, *step); diff != "" {
			t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("schema violation names the path", func(t *testing.T) {
		t.Parallel()

		_, err := Decode[testStep]([]byte(testSchema), "#Step", []byte(`name: "x", retries: -1`), "step.cue")
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("Decode() error = %v, want *SchemaError", err)
		}
		if se.File != "step.cue" || !slices.ContainsFunc(se.Issues, func(is Issue) bool {
			return strings.HasSuffix(is.Path, "retries")
		}) {
			t.Errorf("SchemaError = %+v, want an issue at retries in step.cue", se)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		_, err := Decode[testStep]([]byte(testSchema), "#Step", []byte(`name: {`), "step.cue")
		var se *SchemaError
		if !errors.As(err, &se) || !strings.HasPrefix(err.Error(), "step.cue: ") {
			t.Errorf("Decode() error = %v, want *SchemaError for step.cue", err)
		}
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()

		big := []byte("name: \"" + strings.Repeat("x", MaxFileSize) + "\"")
		if _, err := Decode[testStep]([]byte(testSchema), "#Step", big, "step.cue"); !errors.Is(err, ErrTooLarge) {
			t.Errorf("Decode() error = %v, want ErrTooLarge", err)
		}
	})

	t.Run("unknown definition", func(t *testing.T) {
		t.Parallel()

		if _, err := Decode[testStep]([]byte(testSchema), "#Nope", []byte(`name: "x"`), "step.cue"); err == nil {
			t.Error("expected error for missing definition")
		}
	})
}

func TestDeclaresStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		want    bool
		wantErr bool
	}{
		{name: "struct with name", src: "module: {\n\tname: \"a\"\n}\n", want: true},
		{name: "shorthand label", src: "module: names: [\"a\"]\n", want: true},
		{name: "struct without name", src: "module: {\n\tdescription: \"a\"\n}\n"},
		{name: "not a struct", src: "module: \"a\"\n"},
		{name: "other top-level field", src: "pipeline: {\n\tname: \"a\"\n}\n"},
		{name: "nested only", src: "x: module: {\n\tname: \"a\"\n}\n"},
		{name: "evaluation error is not detected", src: "module: {\n\tname: 1 & 2\n}\n", want: true},
		{name: "syntax error", src: "module: {\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DeclaresStruct([]byte(tt.src), "m.cue", "module", "name", "names")
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeclaresStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DeclaresStruct() = %v, want %v", got, tt.want)
			}
		})
	}
}
