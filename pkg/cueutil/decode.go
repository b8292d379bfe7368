// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode validates data against the definition def of schema and decodes it
// into a T. Every value must be concrete after unification. filename labels
// the positions and issues of the returned error.
func Decode[T any](schema []byte, def string, data []byte, filename string) (*T, error) {
	if err := CheckSize(data, filename); err != nil {
		return nil, err
	}

	cctx := cuecontext.New()
	root := cctx.CompileBytes(schema).LookupPath(cue.ParsePath(def))
	if err := root.Err(); err != nil {
		// The schemas are embedded; a broken one is a build defect.
		return nil, fmt.Errorf("schema %s: %w", def, err)
	}

	doc := cctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, Wrap(err, filename)
	}

	v := root.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, Wrap(err, filename)
	}
	out := new(T)
	if err := v.Decode(out); err != nil {
		return nil, Wrap(err, filename)
	}
	return out, nil
}
