// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gluepipe/gluepipe/pkg/cueutil"
)

const (
	// AppName is the application name and the runtime's own namespace.
	AppName = "gluepipe"
	// ConfigPathsEnv overrides the layer directories with a list of paths.
	ConfigPathsEnv = "GLUEPIPE_CONFIG_PATHS"
	// LocalDirName is the local layer directory, relative to the working directory.
	LocalDirName = ".gluepipe"
)

//go:embed layer_schema.cue
var layerSchema []byte

// ConfigDir returns the user configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// SystemDir returns the system-wide layer directory.
func SystemDir() string {
	if systemDirOverride != "" {
		return systemDirOverride
	}
	if runtime.GOOS == "windows" {
		programData := os.Getenv("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName)
	}
	return filepath.Join("/etc", AppName)
}

// DefaultDirs returns the system, user and local layer directories.
func DefaultDirs() ([]Dir, error) {
	userDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []Dir{
		{Rank: RankSystem, Path: SystemDir()},
		{Rank: RankUser, Path: userDir},
		{Rank: RankLocal, Path: LocalDirName},
	}, nil
}

// DirsFromPaths assigns paths, lowest precedence first, to the highest file
// ranks: one path is the local layer, two are the user and local layers, and
// three fill every file rank.
func DirsFromPaths(paths []string) ([]Dir, error) {
	fileRanks := []Rank{RankSystem, RankUser, RankLocal}
	if len(paths) > len(fileRanks) {
		return nil, &Error{
			Source: strings.Join(paths, ", "),
			Err:    fmt.Errorf("at most %d configuration directories are supported, got %d", len(fileRanks), len(paths)),
		}
	}
	ranks := fileRanks[len(fileRanks)-len(paths):]
	dirs := make([]Dir, len(paths))
	for i, p := range paths {
		dirs[i] = Dir{Rank: ranks[i], Path: p}
	}
	return dirs, nil
}

// RuntimeDirs returns the layer directories of the runtime namespace:
// those listed in ConfigPathsEnv when it is set, the defaults otherwise.
func RuntimeDirs() ([]Dir, error) {
	if raw, ok := os.LookupEnv(ConfigPathsEnv); ok && strings.TrimSpace(raw) != "" {
		return DirsFromPaths(SplitList(raw))
	}
	return DefaultDirs()
}

// SplitList splits a path list on the OS list separator and commas,
// dropping empty elements.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == os.PathListSeparator
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// readLayerFile decodes a layer file according to its extension.
func readLayerFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer file: %w", err)
	}
	if err := cueutil.CheckSize(data, path); err != nil {
		return nil, err
	}

	var raw map[string]any
	switch filepath.Ext(path) {
	case ".cue":
		raw, err = decodeCUE(data, path)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".hcl":
		raw, err = decodeHCL(data, path)
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) > 0 {
			err = yaml.Unmarshal(data, &raw)
		}
	default:
		err = fmt.Errorf("unsupported layer format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return flatten(raw)
}

// decodeCUE validates a CUE layer against the #Layer schema and decodes it
// to a map.
func decodeCUE(data []byte, path string) (map[string]any, error) {
	values, err := cueutil.Decode[map[string]any](layerSchema, "#Layer", data, path)
	if err != nil {
		return nil, err
	}
	return *values, nil
}

// flatten checks raw is a flat mapping of keys to scalars or lists of
// scalars. Null values are dropped so they leave lower layers untouched.
func flatten(raw map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(raw))
	for key, val := range raw {
		switch v := val.(type) {
		case nil:
			continue
		case map[string]any:
			return nil, fmt.Errorf("key %q: nested tables are not supported", key)
		case []any:
			for i, elem := range v {
				if !isScalar(elem) {
					return nil, fmt.Errorf("key %q: element %d is not a scalar", key, i)
				}
			}
		default:
			if !isScalar(v) {
				return nil, fmt.Errorf("key %q: unsupported value of type %T", key, v)
			}
		}
		values[key] = val
	}
	return values, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
