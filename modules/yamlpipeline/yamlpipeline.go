// SPDX-License-Identifier: MPL-2.0

// Package yamlpipeline runs a pipeline described in a YAML file as a nested
// pipeline of the current run.
//
//	pipeline:
//	  - module: dotenv
//	    options: [--file, ci.env]
//	  - module: build:shell
//	    options: [-c, make]
package yamlpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// Name is the implementation key.
const Name = "yaml-pipeline"

type (
	// Module registers the yaml-pipeline implementation.
	Module struct{}

	// Document is the layout of a pipeline file.
	Document struct {
		Pipeline []Entry `json:"pipeline" jsonschema:"modules to run, in order"`
	}

	// Entry is one module of a pipeline file.
	Entry struct {
		Module  string   `json:"module" jsonschema:"module name or alias:module"`
		Options []string `json:"options,omitempty" jsonschema:"command-line options of the module"`
	}

	yamlPipeline struct {
		env   *glue.Env
		file  string
		steps []glue.Step
	}
)

// documentSchema validates decoded pipeline files before they are bound to
// Document, so mistakes are reported with their location in the file.
var documentSchema = mustResolve()

// Register adds the implementation to c.
func (Module) Register(c *registry.Catalog) {
	c.Register(glue.Descriptor{
		Names:       []string{Name},
		Description: "Run the modules listed in a YAML pipeline file.",
		Group:       "pipeline",
		Options: []glue.Option{
			{Name: "file", Short: "f", Type: glue.TypePath, Metavar: "FILE", Help: "pipeline file"},
		},
		Required: []string{"file"},
		DryRun:   glue.DryRunIsolated,
		Factory:  newYAMLPipeline,
	})
}

func newYAMLPipeline(env *glue.Env) (glue.Module, error) {
	return &yamlPipeline{env: env, file: env.Options.String("file")}, nil
}

func (p *yamlPipeline) Sanity(context.Context) error {
	data, err := os.ReadFile(p.file)
	if err != nil {
		return glue.Soft(fmt.Errorf("cannot read pipeline file: %w", err))
	}
	doc, err := Parse(data)
	if err != nil {
		return glue.Soft(fmt.Errorf("pipeline file %q: %w", p.file, err))
	}
	steps, err := doc.Steps()
	if err != nil {
		return glue.Soft(fmt.Errorf("pipeline file %q: %w", p.file, err))
	}

	known := make(map[string]bool)
	for _, d := range p.env.Pipeline.Modules() {
		for _, name := range d.Names {
			known[name] = true
		}
	}
	for _, step := range steps {
		if !known[step.Module] {
			return glue.Soft(fmt.Errorf("pipeline file %q: unknown module %q", p.file, step.Module))
		}
	}
	p.steps = steps
	return nil
}

func (p *yamlPipeline) Execute(ctx context.Context) error {
	p.env.Log.Info("running pipeline file", "file", p.file, "modules", len(p.steps))
	return p.env.Pipeline.RunModules(ctx, p.steps...)
}

func (p *yamlPipeline) Destroy(context.Context, *glue.Failure) error { return nil }

// Parse decodes and validates a pipeline file.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	// Round-trip through JSON so the instance holds only JSON types.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("unsupported YAML value: %w", err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return nil, err
	}
	if err := documentSchema.Validate(instance); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Steps returns the pipeline steps of the document.
func (d *Document) Steps() ([]glue.Step, error) {
	if len(d.Pipeline) == 0 {
		return nil, fmt.Errorf("pipeline is empty")
	}
	steps := make([]glue.Step, len(d.Pipeline))
	for i, e := range d.Pipeline {
		step, err := glue.ParseInvocation(e.Module)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		step.Argv = append([]string(nil), e.Options...)
		steps[i] = step
	}
	return steps, nil
}

func mustResolve() *jsonschema.Resolved {
	schema, err := jsonschema.For[Document](nil)
	if err != nil {
		panic(err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}
