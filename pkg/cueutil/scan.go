// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"slices"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/parser"
)

// DeclaresStruct reports whether the CUE source has a top-level field called
// label whose value is a struct literal declaring at least one of fields.
//
// Only the syntax is inspected: nothing is compiled or evaluated, imports are
// not resolved, and files that would fail evaluation can still match.
// Syntax errors are returned as *SchemaError.
func DeclaresStruct(data []byte, filename, label string, fields ...string) (bool, error) {
	if err := CheckSize(data, filename); err != nil {
		return false, err
	}

	f, err := parser.ParseFile(filename, data)
	if err != nil {
		return false, Wrap(err, filename)
	}

	for _, decl := range f.Decls {
		field, ok := decl.(*ast.Field)
		if !ok || labelName(field.Label) != label {
			continue
		}
		st, ok := field.Value.(*ast.StructLit)
		if !ok {
			continue
		}
		for _, elt := range st.Elts {
			inner, ok := elt.(*ast.Field)
			if ok && slices.Contains(fields, labelName(inner.Label)) {
				return true, nil
			}
		}
	}
	return false, nil
}

func labelName(l ast.Label) string {
	name, _, err := ast.LabelName(l)
	if err != nil {
		return ""
	}
	return name
}
