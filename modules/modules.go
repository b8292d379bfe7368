// SPDX-License-Identifier: MPL-2.0

// Package modules lists the module implementations compiled into gluepipe.
package modules

import (
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/modules/bashcompletion"
	"github.com/gluepipe/gluepipe/modules/dotenv"
	"github.com/gluepipe/gluepipe/modules/shell"
	"github.com/gluepipe/gluepipe/modules/yamlpipeline"
)

// All returns every built-in implementation.
func All() []registry.Registrar {
	return []registry.Registrar{
		bashcompletion.Module{},
		dotenv.Module{},
		shell.Module{},
		yamlpipeline.Module{},
	}
}

// Catalog returns a catalog holding every built-in implementation.
func Catalog() *registry.Catalog {
	c := registry.NewCatalog()
	for _, r := range All() {
		r.Register(c)
	}
	return c
}
