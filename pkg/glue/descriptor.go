// SPDX-License-Identifier: MPL-2.0

package glue

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
)

const (
	// TypeString is a free-form string option. It is the default type.
	TypeString OptionType = "string"
	// TypeInt is an integer option.
	TypeInt OptionType = "int"
	// TypeBool is a boolean option, given on the command line without a value.
	TypeBool OptionType = "bool"
	// TypeFloat is a floating point option.
	TypeFloat OptionType = "float"
	// TypeList is a list of strings. Comma-separated values are split.
	TypeList OptionType = "list"
	// TypePath is a filesystem path. A leading "~/" is expanded.
	TypePath OptionType = "path"
)

var (
	// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid module descriptor")

	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	optionPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	shortPattern  = regexp.MustCompile(`^[a-zA-Z]$`)
)

type (
	// OptionType is the value type of an option.
	OptionType string

	// Option declares one configurable option of a module.
	Option struct {
		// Name is the kebab-case key used in config layers and as the long flag.
		Name string
		// Short is an optional one-letter flag.
		Short string
		// Help is the one-line description shown in module help.
		Help string
		// Default is the built-in value. nil means no default.
		Default any
		// Type is the value type; empty means TypeString.
		Type OptionType
		// Metavar names the value in help output.
		Metavar string
	}

	// Descriptor is the static definition of a module. It is copied when
	// registered and never changed afterwards.
	Descriptor struct {
		// Names holds the declared names; the first one is the primary name.
		Names       []string
		Description string
		// Group is the listing group the module belongs to.
		Group    string
		Options  []Option
		Required []string
		// Shared lists the shared functions the module registers.
		Shared []string
		// EvalContext documents the variables the module contributes.
		EvalContext map[string]string
		// DryRun is the highest dry-run level the module supports.
		DryRun  DryRunLevel
		Factory Factory
	}

	// InvalidDescriptorError is returned when a Descriptor fails validation.
	// It wraps ErrInvalidDescriptor for errors.Is() compatibility.
	InvalidDescriptorError struct {
		Module      string
		FieldErrors []error
	}
)

// IsValid reports whether t is a known option type. The empty type is valid.
func (t OptionType) IsValid() bool {
	switch t {
	case "", TypeString, TypeInt, TypeBool, TypeFloat, TypeList, TypePath:
		return true
	default:
		return false
	}
}

// Kind returns t with the empty type normalized to TypeString.
func (t OptionType) Kind() OptionType {
	if t == "" {
		return TypeString
	}
	return t
}

// Name returns the primary declared name.
func (d *Descriptor) Name() string {
	if len(d.Names) == 0 {
		return ""
	}
	return d.Names[0]
}

// Option returns the declared option called name.
func (d *Descriptor) Option(name string) (Option, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy of d. Option defaults holding slices are copied.
func (d *Descriptor) Clone() Descriptor {
	c := *d
	c.Names = slices.Clone(d.Names)
	c.Required = slices.Clone(d.Required)
	c.Shared = slices.Clone(d.Shared)
	c.EvalContext = maps.Clone(d.EvalContext)
	c.Options = make([]Option, len(d.Options))
	for i, opt := range d.Options {
		if list, ok := opt.Default.([]string); ok {
			opt.Default = slices.Clone(list)
		}
		c.Options[i] = opt
	}
	return c
}

// Validate checks names, options, required keys and shared function names.
func (d *Descriptor) Validate() error {
	var errs []error

	if len(d.Names) == 0 {
		errs = append(errs, errors.New("at least one name is required"))
	}
	seenNames := make(map[string]bool, len(d.Names))
	for _, name := range d.Names {
		if !namePattern.MatchString(name) {
			errs = append(errs, fmt.Errorf("invalid name %q", name))
		}
		if seenNames[name] {
			errs = append(errs, fmt.Errorf("name %q declared twice", name))
		}
		seenNames[name] = true
	}

	seenOpts := make(map[string]bool, len(d.Options))
	seenShort := make(map[string]string)
	for _, opt := range d.Options {
		if !optionPattern.MatchString(opt.Name) {
			errs = append(errs, fmt.Errorf("invalid option name %q", opt.Name))
		}
		if seenOpts[opt.Name] {
			errs = append(errs, fmt.Errorf("option %q declared twice", opt.Name))
		}
		seenOpts[opt.Name] = true
		if !opt.Type.IsValid() {
			errs = append(errs, fmt.Errorf("option %q: unknown type %q", opt.Name, opt.Type))
		}
		if opt.Short == "" {
			continue
		}
		if !shortPattern.MatchString(opt.Short) || opt.Short == "h" {
			errs = append(errs, fmt.Errorf("option %q: invalid short flag %q", opt.Name, opt.Short))
		}
		if other, ok := seenShort[opt.Short]; ok {
			errs = append(errs, fmt.Errorf("options %q and %q share short flag %q", other, opt.Name, opt.Short))
		}
		seenShort[opt.Short] = opt.Name
	}
	if seenOpts["help"] {
		errs = append(errs, errors.New(`option name "help" is reserved`))
	}

	for _, key := range d.Required {
		if !seenOpts[key] {
			errs = append(errs, fmt.Errorf("required option %q is not declared", key))
		}
	}

	seenShared := make(map[string]bool, len(d.Shared))
	for _, name := range d.Shared {
		if name == "" || seenShared[name] {
			errs = append(errs, fmt.Errorf("invalid or duplicate shared function %q", name))
		}
		seenShared[name] = true
	}

	if !d.DryRun.IsValid() {
		errs = append(errs, fmt.Errorf("unknown dry-run level %d", d.DryRun))
	}
	if d.Factory == nil {
		errs = append(errs, errors.New("factory is required"))
	}

	if len(errs) > 0 {
		return &InvalidDescriptorError{Module: d.Name(), FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid module descriptor %q: %v", e.Module, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidDescriptor for errors.Is() compatibility.
func (e *InvalidDescriptorError) Unwrap() error { return ErrInvalidDescriptor }
