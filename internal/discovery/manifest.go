// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	_ "embed"
	"fmt"

	"github.com/gluepipe/gluepipe/pkg/cueutil"
)

// manifestLabel is the top-level field marking a CUE file as a module manifest.
const manifestLabel = "module"

//go:embed manifest_schema.cue
var manifestSchema []byte

type (
	// Manifest is the decoded form of a module manifest file.
	Manifest struct {
		Module ModuleManifest `json:"module"`
	}

	// ModuleManifest declares a module bound to a compiled-in implementation.
	ModuleManifest struct {
		Name           string                    `json:"name,omitempty"`
		Names          []string                  `json:"names,omitempty"`
		Implementation string                    `json:"implementation"`
		Description    string                    `json:"description,omitempty"`
		Group          string                    `json:"group,omitempty"`
		DryRun         string                    `json:"dry_run,omitempty"`
		Required       []string                  `json:"required,omitempty"`
		Options        map[string]OptionOverride `json:"options,omitempty"`
	}

	// OptionOverride adjusts one option of the implementation.
	OptionOverride struct {
		Default any    `json:"default,omitempty"`
		Help    string `json:"help,omitempty"`
		Short   string `json:"short,omitempty"`
	}
)

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte, filename string) (*Manifest, error) {
	return cueutil.Decode[Manifest](manifestSchema, "#Manifest", data, filename)
}

// IsManifest reports whether data looks like a module manifest without
// evaluating it.
func IsManifest(data []byte, filename string) (bool, error) {
	return cueutil.DeclaresStruct(data, filename, manifestLabel, "name", "names", "implementation")
}

// names returns the declared names, primary first, without duplicates.
func (m *ModuleManifest) names() []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range append([]string{m.Name}, m.Names...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// normalizeDefault turns decoded list defaults into []string.
func normalizeDefault(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = fmt.Sprint(item)
	}
	return out
}
