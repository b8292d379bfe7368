// SPDX-License-Identifier: MPL-2.0

// Package bashcompletion generates a bash completion script for the modules
// available to the current run.
package bashcompletion

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// Name is the implementation key.
const Name = "bash-completion"

// Module registers the bash-completion implementation.
type Module struct{}

type bashCompletion struct {
	env    *glue.Env
	output string
}

// stdout receives the script when no output file is given.
var stdout io.Writer = os.Stdout

// Register adds the implementation to c.
func (Module) Register(c *registry.Catalog) {
	c.Register(glue.Descriptor{
		Names:       []string{Name},
		Description: "Print a bash completion script for gluepipe and its modules.",
		Group:       "gluepipe",
		Options: []glue.Option{
			{Name: "output", Short: "o", Type: glue.TypePath, Metavar: "FILE", Help: "write the script to FILE instead of standard output"},
		},
		DryRun:  glue.DryRunIsolated,
		Factory: newBashCompletion,
	})
}

func newBashCompletion(env *glue.Env) (glue.Module, error) {
	return &bashCompletion{env: env, output: env.Options.String("output")}, nil
}

func (b *bashCompletion) Sanity(context.Context) error { return nil }

func (b *bashCompletion) Execute(context.Context) error {
	script := Script(config.AppName, config.RuntimeOptions(), b.env.Pipeline.Modules())
	if b.output == "" {
		_, err := io.WriteString(stdout, script)
		return err
	}
	if b.env.Pipeline.DryRun().Dry() {
		b.env.Log.Info("dry run, not writing completion script", "file", b.output)
		return nil
	}
	if err := os.WriteFile(b.output, []byte(script), 0o644); err != nil {
		return fmt.Errorf("failed to write completion script: %w", err)
	}
	b.env.Log.Info("wrote completion script", "file", b.output)
	return nil
}

func (b *bashCompletion) Destroy(context.Context, *glue.Failure) error { return nil }

// Script renders the completion function of program. Before the first
// module, global options and module names are offered; after a module
// ("name" or "alias:name"), that module's options and every module name.
func Script(program string, global []glue.Option, modules []glue.Descriptor) string {
	fn := "_" + strings.ReplaceAll(program, "-", "_")

	var names []string
	for _, d := range modules {
		names = append(names, d.Names...)
	}
	slices.Sort(names)
	all := strings.Join(names, " ")

	var b strings.Builder
	fmt.Fprintf(&b, "# bash completion for %s\n", program)
	fmt.Fprintf(&b, "%s() {\n", fn)
	b.WriteString("    local cur word module opts\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    module=\"\"\n")
	b.WriteString("    for word in \"${COMP_WORDS[@]:1:COMP_CWORD-1}\"; do\n")
	b.WriteString("        case \"${word#*:}\" in\n")
	if len(names) > 0 {
		fmt.Fprintf(&b, "            %s) module=\"${word#*:}\" ;;\n", strings.Join(names, "|"))
	}
	b.WriteString("        esac\n")
	b.WriteString("    done\n")
	b.WriteString("    case \"$module\" in\n")
	for _, d := range modules {
		fmt.Fprintf(&b, "        %s) opts=%q ;;\n", strings.Join(d.Names, "|"), flags(d.Options))
	}
	fmt.Fprintf(&b, "        *) opts=%q ;;\n", flags(global))
	b.WriteString("    esac\n")
	fmt.Fprintf(&b, "    COMPREPLY=( $(compgen -W \"$opts %s\" -- \"$cur\") )\n", all)
	b.WriteString("}\n")
	fmt.Fprintf(&b, "complete -o default -F %s %s\n", fn, program)
	return b.String()
}

func flags(opts []glue.Option) string {
	out := []string{"--help"}
	for _, opt := range opts {
		out = append(out, "--"+opt.Name)
		if opt.Short != "" {
			out = append(out, "-"+opt.Short)
		}
	}
	return strings.Join(out, " ")
}
