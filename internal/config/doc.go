// SPDX-License-Identifier: MPL-2.0

// Package config resolves layered option values for the runtime and for every
// module instance.
//
// Each namespace (the runtime's own "gluepipe", or a module's invocation alias)
// is resolved from, lowest precedence first: the option's built-in default,
// the system layer, the user layer, the local layer, and the command line.
// File layers are "<namespace>.cue", "<namespace>.toml", "<namespace>.yaml"
// or "<namespace>.hcl" files in the system directory (/etc/gluepipe), the user directory
// ($XDG_CONFIG_HOME/gluepipe and platform equivalents) and ./.gluepipe.
//
// CUE layers are validated against the embedded layer_schema.cue. HCL layers
// may only hold top-level attributes with constant expressions. Layers are
// merged with Viper and values are converted with cast; an option that no
// layer sets and that has no default resolves to glue.Unset.
package config
