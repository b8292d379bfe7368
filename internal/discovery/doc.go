// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the modules available to a session.
//
// Every compiled-in implementation is available under its own names. On top
// of that, the module paths are scanned recursively for CUE manifests: a file
// with a top-level "module" struct binds a new name to an implementation and
// can change its description, group, dry-run level, required options and
// option defaults. The scan runs in two phases. A syntax-only pass decides
// whether a file is a manifest at all; only manifests are then evaluated
// against the embedded schema. Broken manifests are reported as diagnostics
// and skipped, while two modules claiming the same name abort discovery.
package discovery
