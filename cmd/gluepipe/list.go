// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gluepipe/gluepipe/internal/evalctx"
	"github.com/gluepipe/gluepipe/internal/pipeline"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// allGroups is the --list-modules value used when no group is given.
const allGroups = "*"

// newTable returns a listing table with the CLI's header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// listModules writes the modules of group, or every module when group is
// allGroups, grouped and sorted by name.
func listModules(w io.Writer, descs []glue.Descriptor, group string) error {
	byGroup := make(map[string][]glue.Descriptor)
	for _, d := range descs {
		if group != allGroups && d.Group != group {
			continue
		}
		byGroup[d.Group] = append(byGroup[d.Group], d)
	}
	if len(byGroup) == 0 {
		return fmt.Errorf("no modules in group %q", group)
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	slices.Sort(groups)

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := g
		if title == "" {
			title = "ungrouped"
		}
		fmt.Fprintln(w, TitleStyle.Render(title))

		t := newTable("MODULE", "ALIASES", "DESCRIPTION")
		for _, d := range byGroup[g] {
			t.Row(d.Name(), strings.Join(d.Names[1:], ", "), d.Description)
		}
		fmt.Fprintln(w, t.String())
	}
	return nil
}

// listShared writes every shared function and the modules declaring it. The
// runtime's own eval_context function comes first.
func listShared(w io.Writer, descs []glue.Descriptor) {
	owners := map[string][]string{pipeline.EvalContextFunc: {pipeline.DefaultRuntimeName}}
	for _, d := range descs {
		for _, name := range d.Shared {
			owners[name] = append(owners[name], d.Name())
		}
	}
	names := make([]string, 0, len(owners))
	for name := range owners {
		names = append(names, name)
	}
	slices.Sort(names)

	t := newTable("FUNCTION", "DECLARED BY")
	for _, name := range names {
		t.Row(name, strings.Join(owners[name], ", "))
	}
	fmt.Fprintln(w, t.String())
}

// listEvalContext writes the evaluation-context variables documented by the
// runtime and every module.
func listEvalContext(w io.Writer, descs []glue.Descriptor) {
	t := newTable("VARIABLE", "MODULE", "DESCRIPTION")
	t.Row(evalctx.EnvKey, pipeline.DefaultRuntimeName, "process environment")
	t.Row(pipeline.ModuleKey, pipeline.DefaultRuntimeName, "alias of the querying module")
	for _, d := range descs {
		keys := make([]string, 0, len(d.EvalContext))
		for key := range d.EvalContext {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			t.Row(key, d.Name(), d.EvalContext[key])
		}
	}
	fmt.Fprintln(w, t.String())
}
