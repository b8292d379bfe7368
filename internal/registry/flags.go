// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

// FlagSet returns the command-line flags of a module's options. Values are
// kept as strings; typing happens when the configuration is resolved.
func FlagSet(d *glue.Descriptor) *pflag.FlagSet {
	fs := pflag.NewFlagSet(d.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	for _, opt := range d.Options {
		usage := flagUsage(opt)
		switch opt.Type.Kind() {
		case glue.TypeBool:
			fs.BoolP(opt.Name, opt.Short, false, usage)
		case glue.TypeList:
			fs.StringArrayP(opt.Name, opt.Short, nil, usage)
		default:
			fs.StringP(opt.Name, opt.Short, "", usage)
		}
	}
	return fs
}

// flagUsage renders the help text, the metavar (which pflag picks up from
// back quotes) and the default.
func flagUsage(opt glue.Option) string {
	var usage strings.Builder
	usage.WriteString(opt.Help)
	if opt.Metavar != "" && !strings.Contains(opt.Help, "`") {
		fmt.Fprintf(&usage, " (`%s`)", opt.Metavar)
	}
	if opt.Default != nil && opt.Type.Kind() != glue.TypeBool {
		fmt.Fprintf(&usage, " (default: %v)", opt.Default)
	}
	return strings.TrimSpace(usage.String())
}

// ParseArgs parses a step's argv into its command-line layer. Only flags
// given on the command line appear in the result. A help flag yields
// pflag.ErrHelp.
func ParseArgs(d *glue.Descriptor, alias string, argv []string) (map[string]any, error) {
	fs := FlagSet(d)
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, &ArgumentError{Module: alias, Err: err}
	}
	if fs.NArg() > 0 {
		return nil, &ArgumentError{Module: alias, Err: fmt.Errorf("unexpected argument %q", fs.Arg(0))}
	}

	cli := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			cli[f.Name] = sv.GetSlice()
			return
		}
		cli[f.Name] = f.Value.String()
	})
	return cli, nil
}
