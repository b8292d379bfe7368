// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/gluepipe/gluepipe/pkg/glue"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Store resolves option values of a namespace across the layers: built-in
// defaults, the loader's file layers, and the command line.
type Store struct {
	loader Loader
}

// NewStore creates a store reading file layers through loader. A nil loader
// means no file layers.
func NewStore(loader Loader) *Store {
	return &Store{loader: loader}
}

// Resolve computes the value of every option of schema in namespace. A key
// set by a higher-ranked layer overrides lower ones; a key set nowhere and
// without default resolves to glue.Unset. cli holds the command-line layer.
//
// Resolve never mutates the layers it reads, so repeated calls over the same
// layer contents return equal results.
func (s *Store) Resolve(ctx context.Context, namespace string, schema []glue.Option, cli map[string]any) (glue.Values, error) {
	var layers []Layer
	if s.loader != nil {
		loaded, err := s.loader.Load(ctx, namespace)
		if err != nil {
			return nil, err
		}
		layers = loaded
	}
	if err := checkRanks(namespace, layers); err != nil {
		return nil, err
	}
	if len(cli) > 0 {
		layers = append(layers, Layer{Rank: RankCommandLine, Source: "command line", Values: cli})
	}

	options := make(map[string]glue.Option, len(schema))
	for _, opt := range schema {
		options[opt.Name] = opt
	}

	v := viper.New()
	for _, opt := range schema {
		if opt.Default == nil {
			continue
		}
		if _, err := coerce(opt, opt.Default); err != nil {
			return nil, &Error{Namespace: namespace, Source: RankDefault.String(), Key: opt.Name, Err: err}
		}
		v.SetDefault(opt.Name, opt.Default)
	}

	for _, layer := range layers {
		known := make(map[string]any, len(layer.Values))
		for key, val := range layer.Values {
			opt, ok := options[key]
			if !ok || val == nil {
				continue
			}
			if _, err := coerce(opt, val); err != nil {
				return nil, &Error{Namespace: namespace, Source: layer.Source, Key: key, Err: err}
			}
			known[key] = val
		}

		if layer.Rank == RankCommandLine {
			for key, val := range known {
				v.Set(key, val)
			}
			continue
		}
		// MergeConfigMap rewrites the keys of the map it is given.
		if err := v.MergeConfigMap(maps.Clone(known)); err != nil {
			return nil, &Error{Namespace: namespace, Source: layer.Source, Err: err}
		}
	}

	values := make(glue.Values, len(schema))
	for _, opt := range schema {
		raw := v.Get(opt.Name)
		if raw == nil {
			values[opt.Name] = glue.Unset
			continue
		}
		val, err := coerce(opt, raw)
		if err != nil {
			return nil, &Error{Namespace: namespace, Key: opt.Name, Err: err}
		}
		values[opt.Name] = val
	}
	return values, nil
}

// checkRanks rejects layers outside the file ranks and two layers claiming
// one rank. Layers must come lowest rank first.
func checkRanks(namespace string, layers []Layer) error {
	last := RankDefault
	for _, layer := range layers {
		if !layer.Rank.IsFile() {
			return &Error{Namespace: namespace, Source: layer.Source, Err: fmt.Errorf("loader returned a layer of rank %s", layer.Rank)}
		}
		if layer.Rank <= last {
			return &Error{Namespace: namespace, Source: layer.Source, Err: fmt.Errorf("layer rank %s is out of order or claimed twice", layer.Rank)}
		}
		last = layer.Rank
	}
	return nil
}

// coerce converts raw to the Go type of the option's type.
func coerce(opt glue.Option, raw any) (any, error) {
	switch opt.Type.Kind() {
	case glue.TypeInt:
		return cast.ToIntE(raw)
	case glue.TypeBool:
		return cast.ToBoolE(raw)
	case glue.TypeFloat:
		return cast.ToFloat64E(raw)
	case glue.TypeList:
		return toList(raw)
	case glue.TypePath:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return expandHome(s), nil
	case glue.TypeString:
		return cast.ToStringE(raw)
	default:
		return nil, fmt.Errorf("unknown option type %q", opt.Type)
	}
}

// toList converts a string or a list to []string, splitting every element
// on commas so "a,b" and ["a", "b"] are equivalent.
func toList(raw any) ([]string, error) {
	var items []string
	if s, ok := raw.(string); ok {
		items = []string{s}
	} else {
		list, err := cast.ToStringSliceE(raw)
		if err != nil {
			return nil, err
		}
		items = list
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
