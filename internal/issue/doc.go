// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing side of gluepipe's errors: a catalog of
// Markdown remediation pages rendered with glamour, and ActionableError for
// errors that carry an operation, a resource and suggestions.
package issue
