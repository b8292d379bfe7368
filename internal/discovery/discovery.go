// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

const manifestExt = ".cue"

// builtinSource names the origin of compiled-in modules in duplicate errors.
const builtinSource = "<builtin>"

type (
	// Result is the outcome of a discovery pass.
	Result struct {
		// Descriptors holds the builtin modules followed by the discovered
		// ones in scan order.
		Descriptors []glue.Descriptor
		// Diagnostics lists files that were skipped and why.
		Diagnostics []Diagnostic
	}

	// Discoverer scans module search paths for manifests.
	Discoverer struct {
		catalog *registry.Catalog
		logger  *log.Logger
	}
)

// New returns a discoverer binding manifests to the implementations of catalog.
func New(catalog *registry.Catalog, logger *log.Logger) *Discoverer {
	if logger == nil {
		logger = log.Default()
	}
	return &Discoverer{catalog: catalog, logger: logger}
}

// Discover returns every builtin implementation plus the modules declared by
// manifests under searchPaths. Files that are not manifests are skipped
// silently; broken manifests are skipped with a diagnostic. Two modules
// declaring the same name is an error.
func (d *Discoverer) Discover(ctx context.Context, searchPaths ...string) (*Result, error) {
	result := &Result{}
	origin := make(map[string]string)

	add := func(desc glue.Descriptor, source string) error {
		for _, name := range desc.Names {
			if first, exists := origin[name]; exists {
				return &registry.DuplicateModuleNameError{Name: name, First: first, Second: source}
			}
		}
		for _, name := range desc.Names {
			origin[name] = source
		}
		result.Descriptors = append(result.Descriptors, desc)
		return nil
	}

	for _, desc := range d.catalog.Descriptors() {
		if err := add(desc, builtinSource); err != nil {
			return nil, err
		}
	}

	for _, root := range searchPaths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			if err == nil {
				err = errors.New("not a directory")
			}
			result.Diagnostics = append(result.Diagnostics,
				warning(CodeSearchPathInvalid, root, "cannot scan module path", err))
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				result.Diagnostics = append(result.Diagnostics,
					warning(CodeSearchPathInvalid, path, "cannot scan module path", err))
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				if path != root && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != manifestExt {
				return nil
			}

			desc, diag, ok := d.load(root, path)
			if diag != nil {
				result.Diagnostics = append(result.Diagnostics, *diag)
			}
			if !ok {
				return nil
			}
			return add(desc, path)
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return result, nil
}

// load reads one candidate file. ok is false when the file is skipped; diag
// explains why unless the file simply is not a manifest.
func (d *Discoverer) load(root, path string) (glue.Descriptor, *Diagnostic, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		diag := warning(CodeManifestUnreadable, path, "cannot read file", err)
		return glue.Descriptor{}, &diag, false
	}

	isManifest, err := IsManifest(data, path)
	if err != nil {
		diag := warning(CodeManifestSyntax, path, "ignoring file", err)
		return glue.Descriptor{}, &diag, false
	}
	if !isManifest {
		d.logger.Debug("Not a module manifest, skipping.", "path", path)
		return glue.Descriptor{}, nil, false
	}

	manifest, err := ParseManifest(data, path)
	if err != nil {
		diag := warning(CodeManifestInvalid, path, "ignoring invalid manifest", err)
		return glue.Descriptor{}, &diag, false
	}

	desc, diag := d.bind(&manifest.Module, root, path)
	if diag != nil {
		return glue.Descriptor{}, diag, false
	}
	d.logger.Debug("Discovered module.", "name", desc.Name(), "implementation", manifest.Module.Implementation, "path", path)
	return desc, nil, true
}

// bind merges a manifest onto the base descriptor of its implementation.
func (d *Discoverer) bind(m *ModuleManifest, root, path string) (glue.Descriptor, *Diagnostic) {
	fail := func(code DiagnosticCode, format string, args ...any) (glue.Descriptor, *Diagnostic) {
		diag := warning(code, path, fmt.Sprintf(format, args...), nil)
		return glue.Descriptor{}, &diag
	}

	desc, ok := d.catalog.Lookup(m.Implementation)
	if !ok {
		return fail(CodeUnknownImplementation, "unknown implementation %q", m.Implementation)
	}

	desc.Names = m.names()
	if len(desc.Names) == 0 {
		desc.Names = []string{strings.TrimSuffix(filepath.Base(path), manifestExt)}
	}
	if m.Description != "" {
		desc.Description = m.Description
	}
	desc.Group = m.Group
	if desc.Group == "" {
		desc.Group = groupOf(root, path)
	}

	if m.DryRun != "" {
		level, err := glue.ParseDryRunLevel(m.DryRun)
		if err != nil {
			return fail(CodeManifestInvalid, "%v", err)
		}
		if !desc.DryRun.Supports(level) {
			return fail(CodeDryRunNotSupported, "implementation %q supports dry-run level %s, not %s",
				m.Implementation, desc.DryRun, level)
		}
		desc.DryRun = level
	}

	names := make([]string, 0, len(m.Options))
	for name := range m.Options {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		idx := slices.IndexFunc(desc.Options, func(o glue.Option) bool { return o.Name == name })
		if idx < 0 {
			return fail(CodeUnknownOption, "implementation %q has no option %q", m.Implementation, name)
		}
		override := m.Options[name]
		opt := &desc.Options[idx]
		if override.Default != nil {
			opt.Default = normalizeDefault(override.Default)
		}
		if override.Help != "" {
			opt.Help = override.Help
		}
		if override.Short != "" {
			opt.Short = override.Short
		}
	}

	for _, name := range m.Required {
		if !slices.Contains(desc.Required, name) {
			desc.Required = append(desc.Required, name)
		}
	}

	if err := desc.Validate(); err != nil {
		diag := warning(CodeDescriptorInvalid, path, "ignoring manifest", err)
		return glue.Descriptor{}, &diag
	}
	return desc, nil
}

// groupOf returns the directory of path relative to root, or "" at the top.
func groupOf(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Registry builds a registry from the discovered descriptors.
func (r *Result) Registry() (*registry.Registry, error) {
	return registry.New(r.Descriptors...)
}
