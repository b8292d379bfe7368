// SPDX-License-Identifier: MPL-2.0

// Package dotenv loads variables from a .env file into the evaluation
// context.
package dotenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// Name is the implementation key.
const Name = "dotenv"

// GetFunc is the shared function returning one loaded variable.
const GetFunc = "dotenv_get"

// Module registers the dotenv implementation.
type Module struct{}

type dotenv struct {
	env  *glue.Env
	file string
	// optional tolerates a missing file.
	optional bool
	vars     map[string]string
}

var (
	_ glue.SharedProvider  = (*dotenv)(nil)
	_ glue.ContextProvider = (*dotenv)(nil)
)

// Register adds the implementation to c.
func (Module) Register(c *registry.Catalog) {
	c.Register(glue.Descriptor{
		Names:       []string{Name},
		Description: "Load variables from a dotenv file.",
		Group:       "environment",
		Options: []glue.Option{
			{Name: "file", Short: "f", Type: glue.TypePath, Default: ".env", Metavar: "FILE", Help: "dotenv file to load"},
			{Name: "optional", Type: glue.TypeBool, Default: false, Help: "do not fail when the file does not exist"},
		},
		Shared:      []string{GetFunc},
		EvalContext: map[string]string{"<KEY>": "every variable defined in the file"},
		DryRun:      glue.DryRunIsolated,
		Factory:     newDotenv,
	})
}

func newDotenv(env *glue.Env) (glue.Module, error) {
	return &dotenv{
		env:      env,
		file:     env.Options.String("file"),
		optional: env.Options.Bool("optional"),
	}, nil
}

func (d *dotenv) Sanity(context.Context) error {
	info, err := os.Stat(d.file)
	switch {
	case errors.Is(err, fs.ErrNotExist) && d.optional:
		d.env.Log.Debug("dotenv file not found, skipping", "file", d.file)
		return nil
	case err != nil:
		return glue.Soft(fmt.Errorf("dotenv file %q: %w", d.file, err))
	case info.IsDir():
		return glue.Soft(fmt.Errorf("dotenv file %q is a directory", d.file))
	}
	return nil
}

func (d *dotenv) Execute(context.Context) error {
	vars, err := godotenv.Read(d.file)
	if errors.Is(err, fs.ErrNotExist) && d.optional {
		d.vars = map[string]string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", d.file, err)
	}
	d.vars = vars
	d.env.Log.Info("loaded dotenv file", "file", d.file, "variables", len(vars))
	return nil
}

func (d *dotenv) Destroy(context.Context, *glue.Failure) error { return nil }

func (d *dotenv) SharedFunctions() map[string]glue.SharedFunc {
	return map[string]glue.SharedFunc{
		GetFunc: func(_ context.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes one argument, got %d", GetFunc, len(args))
			}
			key, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s: key must be a string, got %T", GetFunc, args[0])
			}
			if v, ok := d.vars[key]; ok {
				return v, nil
			}
			return nil, nil
		},
	}
}

func (d *dotenv) EvalContext() map[string]any {
	out := make(map[string]any, len(d.vars))
	for k, v := range d.vars {
		out[k] = v
	}
	return out
}
