// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/gluepipe/gluepipe/pkg/types"
)

// ExitError carries a process exit status out of RunE without calling
// os.Exit from inside the command.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
