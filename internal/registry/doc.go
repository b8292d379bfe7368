// SPDX-License-Identifier: MPL-2.0

// Package registry holds module implementations and discovered modules, and
// turns pipeline steps into configured instances.
//
// A Catalog collects the compiled-in implementations (each module package
// registers itself into it). A Registry holds the descriptors produced by
// discovery and resolves a step "alias:module" into an Instance: the module
// is looked up by declared name, the alias is checked for uniqueness within
// the run, the step's argv is parsed into the command-line layer, and the
// options are resolved under the alias namespace.
package registry
