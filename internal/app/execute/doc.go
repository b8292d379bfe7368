// SPDX-License-Identifier: MPL-2.0

// Package execute drives a gluepipe session: it resolves the runtime's own
// configuration, discovers the available modules, runs the pipeline (again,
// when a module asks for a retry), reports every captured failure and turns
// the outcome into an exit status.
package execute
