// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// layerExts lists the recognized layer file extensions, in lookup order.
var layerExts = []string{".cue", ".toml", ".yaml", ".yml", ".hcl"}

type (
	// Loader returns the file layers of a namespace. A namespace without any
	// layer file yields no layers and no error.
	Loader interface {
		Load(ctx context.Context, namespace string) ([]Layer, error)
	}

	// Dir is a directory holding layer files at a fixed rank.
	Dir struct {
		Rank Rank
		Path string
	}

	// FileLoader reads "<namespace>.<ext>" files from a set of ranked directories.
	FileLoader struct {
		dirs []Dir
	}
)

// NewFileLoader creates a loader over dirs. Every dir must have a distinct
// file rank.
func NewFileLoader(dirs ...Dir) (*FileLoader, error) {
	seen := make(map[Rank]string, len(dirs))
	for _, d := range dirs {
		if !d.Rank.IsFile() {
			return nil, &Error{Source: d.Path, Err: fmt.Errorf("rank %s is not a file layer rank", d.Rank)}
		}
		if other, ok := seen[d.Rank]; ok {
			return nil, &Error{Source: d.Path, Err: fmt.Errorf("rank %s already claimed by %s", d.Rank, other)}
		}
		seen[d.Rank] = d.Path
	}
	return &FileLoader{dirs: sortDirs(dirs)}, nil
}

// Dirs returns the loader's directories, lowest rank first.
func (l *FileLoader) Dirs() []Dir {
	return append([]Dir(nil), l.dirs...)
}

// Load reads the namespace's file in every directory, lowest rank first.
func (l *FileLoader) Load(ctx context.Context, namespace string) ([]Layer, error) {
	if namespace == "" || strings.ContainsAny(namespace, `/\`) || strings.HasPrefix(namespace, ".") {
		return nil, &Error{Namespace: namespace, Err: errors.New("invalid namespace")}
	}

	layers := make([]Layer, 0, len(l.dirs))
	for _, d := range l.dirs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
		default:
		}

		path, err := findLayerFile(d.Path, namespace)
		if err != nil {
			return nil, &Error{Namespace: namespace, Source: d.Path, Err: err}
		}
		if path == "" {
			continue
		}

		values, err := readLayerFile(path)
		if err != nil {
			return nil, &Error{Namespace: namespace, Source: path, Err: err}
		}
		layers = append(layers, Layer{Rank: d.Rank, Source: path, Values: values})
	}
	return layers, nil
}

// findLayerFile returns the namespace's layer file in dir, or "" when there
// is none. Two files for one namespace would claim the same rank.
func findLayerFile(dir, namespace string) (string, error) {
	var found []string
	for _, ext := range layerExts {
		path := filepath.Join(dir, namespace+ext)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			return "", err
		case info.IsDir():
			return "", fmt.Errorf("%s is a directory", path)
		}
		found = append(found, path)
	}
	if len(found) > 1 {
		return "", fmt.Errorf("ambiguous layer: %s", strings.Join(found, ", "))
	}
	if len(found) == 0 {
		return "", nil
	}
	return found[0], nil
}

func sortDirs(dirs []Dir) []Dir {
	sorted := make([]Dir, 0, len(dirs))
	for r := RankSystem; r <= RankLocal; r++ {
		for _, d := range dirs {
			if d.Rank == r {
				sorted = append(sorted, d)
			}
		}
	}
	return sorted
}
