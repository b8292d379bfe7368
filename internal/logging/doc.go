// SPDX-License-Identifier: MPL-2.0

// Package logging builds the runtime's charmbracelet/log logger from the
// resolved runtime configuration.
package logging
