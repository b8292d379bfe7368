// SPDX-License-Identifier: MPL-2.0

// Package glue is the module-author API of gluepipe.
//
// A module is described by a Descriptor (names, options, required options,
// shared functions, supported dry-run level) and built by the descriptor's
// Factory once per pipeline step. Every module implements the three lifecycle
// phases of Module; it may additionally implement SharedProvider to expose
// shared functions to later modules and ContextProvider to contribute
// evaluation-context variables.
//
//	type greeter struct {
//		glue.Base
//		env *glue.Env
//	}
//
//	func (g *greeter) Execute(ctx context.Context) error {
//		g.env.Log.Info("hello", "name", g.env.Options.String("name"))
//		return nil
//	}
//
// Modules reach the rest of the pipeline only through the Pipeline handle in
// their Env; there is no process-wide state.
package glue
