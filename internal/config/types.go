// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RankDefault is the built-in per-option default.
	RankDefault Rank = iota
	// RankSystem is the system-wide file layer.
	RankSystem
	// RankUser is the user-home file layer.
	RankUser
	// RankLocal is the local-directory file layer.
	RankLocal
	// RankCommandLine is the command-line layer.
	RankCommandLine
)

// ErrConfig is the sentinel error wrapped by Error.
var ErrConfig = errors.New("configuration error")

type (
	// Rank is the fixed precedence of a layer; higher ranks override lower ones.
	Rank int

	// Layer is one source of key/value overrides.
	Layer struct {
		Rank Rank
		// Source names where the values came from, usually a file path.
		Source string
		Values map[string]any
	}

	// Error reports an unreadable or malformed layer, or a value that cannot
	// be converted to its option's type. It wraps ErrConfig for errors.Is().
	Error struct {
		Namespace string
		Source    string
		Key       string
		Err       error
	}
)

// IsValid reports whether r is a known rank.
func (r Rank) IsValid() bool {
	return r >= RankDefault && r <= RankCommandLine
}

// IsFile reports whether r is one of the file layer ranks.
func (r Rank) IsFile() bool {
	return r >= RankSystem && r <= RankLocal
}

// String implements fmt.Stringer.
func (r Rank) String() string {
	switch r {
	case RankDefault:
		return "default"
	case RankSystem:
		return "system"
	case RankUser:
		return "user"
	case RankLocal:
		return "local"
	case RankCommandLine:
		return "command-line"
	default:
		return fmt.Sprintf("Rank(%d)", int(r))
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg strings.Builder
	msg.WriteString("config")
	if e.Namespace != "" {
		fmt.Fprintf(&msg, " for %q", e.Namespace)
	}
	if e.Source != "" {
		fmt.Fprintf(&msg, " from %s", e.Source)
	}
	if e.Key != "" {
		fmt.Fprintf(&msg, ", option %q", e.Key)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Unwrap returns ErrConfig together with the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfig}
	}
	return []error{ErrConfig, e.Err}
}
