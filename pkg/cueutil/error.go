// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// MaxFileSize bounds every CUE document gluepipe reads (5 MiB).
const MaxFileSize = 5 << 20

// ErrTooLarge is returned for documents over MaxFileSize.
var ErrTooLarge = errors.New("file too large")

type (
	// Issue is one problem CUE found in a document.
	Issue struct {
		// Path locates the value, e.g. "module.names[0]". Empty for
		// problems not tied to a value, such as syntax errors.
		Path    string
		Message string
	}

	// SchemaError is a document that failed to parse or to satisfy its
	// schema.
	SchemaError struct {
		File   string
		Issues []Issue
		Err    error
	}
)

// Wrap turns a CUE error into a *SchemaError for file. It returns nil for a
// nil err.
func Wrap(err error, file string) error {
	if err == nil {
		return nil
	}
	se := &SchemaError{File: file, Err: err}
	for _, e := range cueerrors.Errors(err) {
		path := jsonPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" {
			// CUE repeats the path at the head of some messages.
			if rest, ok := strings.CutPrefix(msg, path+":"); ok {
				msg = strings.TrimSpace(rest)
			}
		}
		se.Issues = append(se.Issues, Issue{Path: path, Message: msg})
	}
	if len(se.Issues) == 0 {
		se.Issues = []Issue{{Message: err.Error()}}
	}
	return se
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Issues) == 1 {
		return e.File + ": " + e.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems:", e.File, len(e.Issues))
	for _, is := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(is.String())
	}
	return b.String()
}

// Unwrap returns the CUE error.
func (e *SchemaError) Unwrap() error { return e.Err }

func (is Issue) String() string {
	if is.Path == "" {
		return is.Message
	}
	return is.Path + ": " + is.Message
}

// jsonPath joins CUE path selectors, writing list indexes in brackets:
// [module names 0] becomes module.names[0].
func jsonPath(sels []string) string {
	var b strings.Builder
	for i, sel := range sels {
		if _, err := strconv.ParseUint(sel, 10, 64); err == nil && i > 0 {
			b.WriteString("[" + sel + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}

// CheckSize rejects data over MaxFileSize.
func CheckSize(data []byte, file string) error {
	if len(data) > MaxFileSize {
		return fmt.Errorf("%s: %w: %d bytes, limit %d", file, ErrTooLarge, len(data), MaxFileSize)
	}
	return nil
}
