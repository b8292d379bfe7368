// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives a pipeline run through its lifecycle.
//
// A Run instantiates every step before running anything: unknown modules,
// reused aliases, bad arguments, unsupported dry-run levels and missing
// required options all fail the run before the first sanity check. The
// modules are then constructed, checked with Sanity in pipeline order and
// executed one at a time in pipeline order. Whatever happens, every module
// that was constructed is destroyed, last first, and a destroy failure never
// keeps the remaining modules from being destroyed.
//
// The first sanity, execute or construction failure is the primary failure
// of the run; destroy failures are collected behind it into a RunError.
package pipeline
