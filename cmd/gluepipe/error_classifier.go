// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/issue"
	"github.com/gluepipe/gluepipe/internal/pipeline"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/internal/shared"
)

// classifyError maps the failure of a session to an issue catalog ID and
// returns a styled one-line message for it. Only the primary failure of a
// run is classified.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	primary := err
	var runErr *pipeline.RunError
	if errors.As(err, &runErr) {
		primary = runErr.Primary
	}

	switch {
	case errors.Is(primary, registry.ErrUnknownModule):
		issueID = issue.UnknownModuleId
	case errors.Is(primary, registry.ErrDuplicateAlias):
		issueID = issue.DuplicateAliasId
	case errors.Is(primary, registry.ErrRequiredOptionMissing):
		issueID = issue.RequiredOptionMissingId
	case errors.Is(primary, registry.ErrDuplicateModuleName):
		issueID = issue.DuplicateModuleNameId
	case errors.Is(primary, pipeline.ErrDryRunNotSupported):
		issueID = issue.DryRunNotSupportedId
	case errors.Is(primary, config.ErrInvalidRuntime):
		issueID = issue.InvalidRuntimeId
	case errors.Is(primary, config.ErrConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(primary, shared.ErrUnknownFunction), errors.Is(primary, pipeline.ErrSharedNotRegistered):
		issueID = issue.SharedFunctionMissingId
	default:
		issueID = issue.ModuleFailedId
	}

	return issueID, fmt.Sprintf("%s %s", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
