// SPDX-License-Identifier: MPL-2.0

package config

var (
	// configDirOverride allows tests to override the user config directory.
	// os.UserHomeDir() doesn't reliably respect HOME on all platforms.
	configDirOverride string
	// systemDirOverride allows tests to point the system layer at a temp dir.
	systemDirOverride string
)

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	systemDirOverride = ""
}

// SetConfigDirOverride sets a custom user config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetSystemDirOverride sets a custom system layer directory path.
func SetSystemDirOverride(dir string) {
	systemDirOverride = dir
}
