// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail the test on error,
// reducing boilerplate around fixture files and the environment.
package testutil
