// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

const (
	// CodeSearchPathInvalid reports a module path that cannot be scanned.
	CodeSearchPathInvalid DiagnosticCode = "search_path_invalid"
	// CodeManifestUnreadable reports a candidate file that cannot be read.
	CodeManifestUnreadable DiagnosticCode = "manifest_unreadable"
	// CodeManifestSyntax reports a candidate file that does not parse.
	CodeManifestSyntax DiagnosticCode = "manifest_syntax"
	// CodeManifestInvalid reports a manifest failing schema validation.
	CodeManifestInvalid DiagnosticCode = "manifest_invalid"
	// CodeUnknownImplementation reports a manifest naming no known implementation.
	CodeUnknownImplementation DiagnosticCode = "unknown_implementation"
	// CodeUnknownOption reports a manifest overriding an option the
	// implementation does not declare.
	CodeUnknownOption DiagnosticCode = "unknown_option"
	// CodeDryRunNotSupported reports a manifest raising the dry-run level
	// above what the implementation supports.
	CodeDryRunNotSupported DiagnosticCode = "dry_run_not_supported"
	// CodeDescriptorInvalid reports a merged descriptor failing validation.
	CodeDescriptorInvalid DiagnosticCode = "descriptor_invalid"
)

// ErrInvalidSeverity is returned when a Severity value is not recognized.
var ErrInvalidSeverity = errors.New("invalid diagnostic severity")

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		Severity Severity
		Code     DiagnosticCode
		Message  string
		// Path is the file or directory the diagnostic is about.
		Path string
		// Cause is the underlying error, if any.
		Cause error
	}
)

// IsValid returns whether s is a known severity.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, s)}
	}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Path != "" {
		msg = d.Path + ": " + msg
	}
	if d.Cause != nil {
		msg += ": " + d.Cause.Error()
	}
	return msg
}

func warning(code DiagnosticCode, path, message string, cause error) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Path: path, Cause: cause}
}
