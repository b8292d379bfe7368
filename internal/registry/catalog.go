// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

type (
	// Registrar is implemented by packages providing module implementations.
	Registrar interface {
		Register(c *Catalog)
	}

	// Catalog holds the compiled-in module implementations, keyed by the
	// primary name of their base descriptor. Manifests bind to them by that key.
	Catalog struct {
		entries map[string]glue.Descriptor
	}
)

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]glue.Descriptor)}
}

// Register adds an implementation. It panics on an invalid descriptor or a
// key registered twice; both are programming errors.
func (c *Catalog) Register(d glue.Descriptor) {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	key := d.Name()
	if _, exists := c.entries[key]; exists {
		panic(fmt.Sprintf("module implementation %q already registered", key))
	}
	log.Debug("Registering module implementation.", "name", key)
	c.entries[key] = d.Clone()
}

// Lookup returns a copy of the base descriptor of implementation key.
func (c *Catalog) Lookup(key string) (glue.Descriptor, bool) {
	d, ok := c.entries[key]
	if !ok {
		return glue.Descriptor{}, false
	}
	return d.Clone(), true
}

// Keys returns the implementation keys, sorted.
func (c *Catalog) Keys() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Descriptors returns copies of every base descriptor, sorted by key.
func (c *Catalog) Descriptors() []glue.Descriptor {
	keys := c.Keys()
	out := make([]glue.Descriptor, len(keys))
	for i, key := range keys {
		d := c.entries[key]
		out[i] = d.Clone()
	}
	return out
}
