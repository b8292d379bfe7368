// SPDX-License-Identifier: MPL-2.0

// Package cueutil checks gluepipe's CUE documents against embedded schemas.
//
// Decode compiles a document, closes it under one schema definition and
// decodes the concrete result. DeclaresStruct only parses: discovery uses it
// to pick manifest candidates before paying for evaluation.
//
// Failures of either are reported as *SchemaError, one Issue per offending
// value, keyed by file name and path:
//
//	m, err := cueutil.Decode[Manifest](schema, "#Manifest", data, "deploy.cue")
//	// deploy.cue: module.options.retries.default: conflicting values 3 and "x"
package cueutil
