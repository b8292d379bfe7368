// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	NoModulesId Id = iota + 1
	UnknownModuleId
	DuplicateAliasId
	RequiredOptionMissingId
	DryRunNotSupportedId
	ConfigLoadFailedId
	InvalidRuntimeId
	ManifestInvalidId
	DuplicateModuleNameId
	SharedFunctionMissingId
	ModuleFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue page with the given glamour style ("dark",
// "light", "notty" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(slices.Clone(i.docLinks), i.extLinks...) {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	noModulesIssue = &Issue{
		id: NoModulesId,
		mdMsg: `
# No modules specified!

A pipeline needs at least one module to run. Modules follow the global options
on the command line, each one followed by its own options.

## Things you can try:
- List the modules gluepipe knows about:
~~~
$ gluepipe --list-modules
~~~

- Run a pipeline of two modules:
~~~
$ gluepipe dotenv --file .env shell --command 'echo "$GREETING"'
~~~

- Give a module an alias to run it twice:
~~~
$ gluepipe build:shell -c 'make' test:shell -c 'make test'
~~~`,
	}

	unknownModuleIssue = &Issue{
		id: UnknownModuleId,
		mdMsg: `
# Unknown module!

The pipeline names a module that is neither built in nor declared by a module
manifest on the module search path.

## Things you can try:
- Check the spelling of the module name
- List the available modules, optionally by group:
~~~
$ gluepipe --list-modules
~~~

- Add the directory holding your manifests to the search path:
~~~
$ gluepipe --module-path ./modules <module> ...
~~~`,
	}

	duplicateAliasIssue = &Issue{
		id: DuplicateAliasId,
		mdMsg: `
# Alias used twice!

Every module in a pipeline runs under a unique alias, and the alias also names
its configuration files. The alias defaults to the module name.

## Things you can try:
- Give the second occurrence its own alias:
~~~
$ gluepipe first:shell -c 'true' second:shell -c 'true'
~~~

- Do not use "gluepipe" as an alias, it belongs to the runtime`,
	}

	requiredOptionMissingIssue = &Issue{
		id: RequiredOptionMissingId,
		mdMsg: `
# Required option missing!

A module declares an option as required and no configuration layer sets it.

## Things you can try:
- Pass the option on the command line, after the module name
- Set it in the module's configuration file, named after the alias:
~~~toml
# ~/.config/gluepipe/<alias>.toml
command = "make"
~~~

- Show the module's options:
~~~
$ gluepipe <module> --help
~~~`,
	}

	dryRunNotSupportedIssue = &Issue{
		id: DryRunNotSupportedId,
		mdMsg: `
# Dry run not supported!

A module in the pipeline cannot promise to skip its side effects at the
requested dry-run level, so the pipeline was not started.

## Things you can try:
- Drop the module from the pipeline while testing
- Use --dry-run instead of --isolated-run if the module supports it
- Run without a dry-run level`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

A configuration layer could not be read, could not be parsed, or holds a value
that does not fit the option's type.

## Common issues:
- Syntax errors in a CUE, TOML, YAML or HCL layer
- The same namespace configured twice in one directory (for example both
  ` + "`deploy.toml`" + ` and ` + "`deploy.yaml`" + `)
- Nested tables; layers map option names to scalars or lists

## Things you can try:
- Run with verbose mode for the full error chain:
~~~
$ gluepipe --verbose <module> ...
~~~

- Point gluepipe at other configuration directories:
~~~
$ GLUEPIPE_CONFIG_PATHS=/etc/gluepipe:./ci gluepipe <module> ...
~~~`,
	}

	invalidRuntimeIssue = &Issue{
		id: InvalidRuntimeId,
		mdMsg: `
# Invalid gluepipe options!

The global options, resolved from every configuration layer, contradict each
other or hold an unsupported value.

## Things you can try:
- Do not combine --debug and --quiet
- Use text, json or logfmt as the log format
- Keep the retry count zero or positive
- Pass at most three module configuration directories`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Module manifest skipped!

A file on the module search path looks like a module manifest but could not
be loaded. The file was skipped and the remaining modules are still available.

## Example of a valid manifest:
~~~cue
module: {
	names: ["deploy", "ship"]
	implementation: "shell"
	description: "Deploy the current build"
	options: command: default: "make deploy"
}
~~~`,
	}

	duplicateModuleNameIssue = &Issue{
		id: DuplicateModuleNameId,
		mdMsg: `
# Module name claimed twice!

Two modules, built in or declared by manifests, claim the same name. Module
names must be unique across the whole search path.

## Things you can try:
- Rename one of the manifests' modules
- Remove one of the directories from --module-path`,
	}

	sharedFunctionMissingIssue = &Issue{
		id: SharedFunctionMissingId,
		mdMsg: `
# Shared function missing!

A module called a shared function that no earlier module registered.

## Things you can try:
- Put the module providing the function before the module using it
- List the shared functions of the available modules:
~~~
$ gluepipe --list-shared
~~~`,
	}

	moduleFailedIssue = &Issue{
		id: ModuleFailedId,
		mdMsg: `
# Pipeline failed!

A module failed and the pipeline was stopped. Every module that had been
created was destroyed, last first.

## Things you can try:
- Read the log above for the module's own error
- Rerun with --debug to see every phase transition
- Use --retries if the failure is transient and the module asks for a retry`,
	}

	issues = map[Id]*Issue{
		noModulesIssue.Id():             noModulesIssue,
		unknownModuleIssue.Id():         unknownModuleIssue,
		duplicateAliasIssue.Id():        duplicateAliasIssue,
		requiredOptionMissingIssue.Id(): requiredOptionMissingIssue,
		dryRunNotSupportedIssue.Id():    dryRunNotSupportedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		invalidRuntimeIssue.Id():        invalidRuntimeIssue,
		manifestInvalidIssue.Id():       manifestInvalidIssue,
		duplicateModuleNameIssue.Id():   duplicateModuleNameIssue,
		sharedFunctionMissingIssue.Id(): sharedFunctionMissingIssue,
		moduleFailedIssue.Id():          moduleFailedIssue,
	}
)

// Values returns every catalog issue ordered by ID.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
