// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// moduleHelp writes the help of one module: its options, the shared
// functions it registers and the variables it adds to the eval context.
func moduleHelp(w io.Writer, d *glue.Descriptor) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Module:"), ModuleStyle.Render(d.Name()))
	if len(d.Names) > 1 {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Also known as:"), strings.Join(d.Names[1:], ", "))
	}
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}

	fmt.Fprintf(w, "\n%s\n  gluepipe [global options] [alias:]%s [options]\n", TitleStyle.Render("Usage:"), d.Name())

	if len(d.Options) > 0 {
		fmt.Fprintf(w, "\n%s\n%s", TitleStyle.Render("Options:"), registry.FlagSet(d).FlagUsages())
	}
	if len(d.Required) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", TitleStyle.Render("Required:"), strings.Join(d.Required, ", "))
	}
	if len(d.Shared) > 0 {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Shared functions:"))
		for _, name := range d.Shared {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(d.EvalContext) > 0 {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Evaluation context:"))
		keys := make([]string, 0, len(d.EvalContext))
		for key := range d.EvalContext {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "  %-20s %s\n", key, d.EvalContext[key])
		}
	}
	if d.DryRun != glue.DryRunDefault {
		fmt.Fprintf(w, "\n%s %s\n", SubtitleStyle.Render("Supports dry-run level:"), d.DryRun)
	}
}
