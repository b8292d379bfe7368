// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

// Runtime option names.
const (
	OptModulePath       = "module-path"
	OptModuleConfigPath = "module-config-path"
	OptRetries          = "retries"
	OptDryRun           = "dry-run"
	OptIsolatedRun      = "isolated-run"
	OptDebug            = "debug"
	OptVerbose          = "verbose"
	OptQuiet            = "quiet"
	OptLogFormat        = "log-format"
	OptLogFile          = "log-file"
	OptInfo             = "info"
	OptPID              = "pid"
	OptMetricsFile      = "metrics-file"
)

// Log formats.
const (
	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"
)

// ErrInvalidRuntime is the sentinel error wrapped by InvalidRuntimeError.
var ErrInvalidRuntime = errors.New("invalid runtime configuration")

type (
	// LogFormat selects the log output encoding.
	LogFormat string

	// Runtime is the resolved configuration of gluepipe itself.
	Runtime struct {
		ModulePaths       []string
		ModuleConfigPaths []string
		Retries           int
		DryRun            bool
		IsolatedRun       bool
		Debug             bool
		Verbose           bool
		Quiet             bool
		LogFormat         LogFormat
		LogFile           string
		Info              bool
		PID               bool
		MetricsFile       string
	}

	// InvalidRuntimeError is returned when resolved runtime options are
	// inconsistent.
	InvalidRuntimeError struct {
		FieldErrors []error
	}
)

// RuntimeOptions returns the option schema of the runtime namespace.
func RuntimeOptions() []glue.Option {
	return []glue.Option{
		{Name: OptModulePath, Type: glue.TypeList, Metavar: "DIR", Help: "directories searched for module manifests"},
		{Name: OptModuleConfigPath, Type: glue.TypeList, Metavar: "DIR", Help: "directories holding module configuration layers (at most three, lowest precedence first)"},
		{Name: OptRetries, Short: "r", Type: glue.TypeInt, Default: 0, Metavar: "N", Help: "retry the pipeline up to N times when a module asks for it"},
		{Name: OptDryRun, Type: glue.TypeBool, Default: false, Help: "skip actions with side effects"},
		{Name: OptIsolatedRun, Type: glue.TypeBool, Default: false, Help: "like --dry-run, and avoid reaching outside the host"},
		{Name: OptDebug, Short: "d", Type: glue.TypeBool, Default: false, Help: "log debugging messages"},
		{Name: OptVerbose, Short: "v", Type: glue.TypeBool, Default: false, Help: "log verbose messages and full error chains"},
		{Name: OptQuiet, Short: "q", Type: glue.TypeBool, Default: false, Help: "log warnings and errors only"},
		{Name: OptLogFormat, Type: glue.TypeString, Default: string(LogFormatText), Metavar: "FORMAT", Help: "log format: text, json or logfmt"},
		{Name: OptLogFile, Type: glue.TypePath, Metavar: "FILE", Help: "also write the log to FILE"},
		{Name: OptInfo, Short: "i", Type: glue.TypeBool, Default: false, Help: "log the command line reproducing this run"},
		{Name: OptPID, Short: "p", Type: glue.TypeBool, Default: false, Help: "log the process ID"},
		{Name: OptMetricsFile, Type: glue.TypePath, Metavar: "FILE", Help: "write run metrics to FILE in the Prometheus textfile format"},
	}
}

// NewRuntime builds a Runtime from resolved runtime options.
func NewRuntime(v glue.Values) (*Runtime, error) {
	rt := &Runtime{
		ModulePaths:       v.Strings(OptModulePath),
		ModuleConfigPaths: v.Strings(OptModuleConfigPath),
		Retries:           v.Int(OptRetries),
		DryRun:            v.Bool(OptDryRun),
		IsolatedRun:       v.Bool(OptIsolatedRun),
		Debug:             v.Bool(OptDebug),
		Verbose:           v.Bool(OptVerbose),
		Quiet:             v.Bool(OptQuiet),
		LogFormat:         LogFormat(v.String(OptLogFormat)),
		LogFile:           v.String(OptLogFile),
		Info:              v.Bool(OptInfo),
		PID:               v.Bool(OptPID),
		MetricsFile:       v.String(OptMetricsFile),
	}
	if ok, errs := rt.IsValid(); !ok {
		return nil, errs[0]
	}
	return rt, nil
}

// DryRunLevel returns the requested dry-run level.
func (r *Runtime) DryRunLevel() glue.DryRunLevel {
	switch {
	case r.IsolatedRun:
		return glue.DryRunIsolated
	case r.DryRun:
		return glue.DryRunDry
	default:
		return glue.DryRunDefault
	}
}

// IsValid returns whether the runtime configuration is consistent.
func (r *Runtime) IsValid() (bool, []error) {
	var errs []error
	if r.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", r.Retries))
	}
	switch r.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (expected text, json or logfmt)", r.LogFormat))
	}
	if r.Debug && r.Quiet {
		errs = append(errs, errors.New("debug and quiet are mutually exclusive"))
	}
	if len(r.ModuleConfigPaths) > 3 {
		errs = append(errs, fmt.Errorf("at most 3 module config paths are supported, got %d", len(r.ModuleConfigPaths)))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRuntimeError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidRuntimeError) Error() string {
	return fmt.Sprintf("invalid runtime configuration: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidRuntime for errors.Is() compatibility.
func (e *InvalidRuntimeError) Unwrap() error { return ErrInvalidRuntime }
