// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

// ErrUsage is the sentinel error wrapped by UsageError.
var ErrUsage = errors.New("invalid command line")

// aliasedInvocation matches "alias:module" tokens.
var aliasedInvocation = regexp.MustCompile(`^[a-z][a-z0-9_-]*:[a-z][a-z0-9_-]*$`)

// UsageError is returned when the command line cannot be split into steps.
type UsageError struct {
	Token  string
	Reason string
}

// ParsePipeline splits the tokens following the global options into steps.
// The first token always names a module. After it, a token that is a known
// module name or an "alias:module" invocation starts a new step and every
// other token is an option of the current step.
func ParsePipeline(tokens []string, known func(name string) bool) ([]glue.Step, error) {
	var steps []glue.Step
	for i, token := range tokens {
		startsStep := i == 0 || (!strings.HasPrefix(token, "-") && (known(token) || aliasedInvocation.MatchString(token)))
		if !startsStep {
			last := &steps[len(steps)-1]
			last.Argv = append(last.Argv, token)
			continue
		}
		if strings.HasPrefix(token, "-") {
			return nil, &UsageError{Token: token, Reason: "global options must precede the first module"}
		}
		step, err := glue.ParseInvocation(token)
		if err != nil {
			return nil, &UsageError{Token: token, Reason: err.Error()}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// wantsHelp reports whether a step's argv asks for the module's help.
func wantsHelp(argv []string) bool {
	for _, arg := range argv {
		switch arg {
		case "-h", "--help":
			return true
		case "--":
			return false
		}
	}
	return false
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("unexpected %q: %s", e.Token, e.Reason)
}

// Unwrap returns ErrUsage for errors.Is() compatibility.
func (e *UsageError) Unwrap() error { return ErrUsage }
