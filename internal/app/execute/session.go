// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/discovery"
	"github.com/gluepipe/gluepipe/internal/issue"
	"github.com/gluepipe/gluepipe/internal/registry"
)

// LoadRuntime resolves the runtime namespace from its configuration layers
// and the global command-line options in cli.
func LoadRuntime(ctx context.Context, cli map[string]any) (*config.Runtime, error) {
	dirs, err := config.RuntimeDirs()
	if err != nil {
		return nil, configError(err, "")
	}
	loader, err := config.NewFileLoader(dirs...)
	if err != nil {
		return nil, configError(err, "")
	}
	values, err := config.NewStore(loader).Resolve(ctx, config.AppName, config.RuntimeOptions(), cli)
	if err != nil {
		return nil, configError(err, config.AppName)
	}
	rt, err := config.NewRuntime(values)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve gluepipe options").
			WithSuggestion("Run 'gluepipe --help' to see the global options").
			Wrap(err).
			BuildError()
	}
	return rt, nil
}

// ModuleStore returns the configuration store of module namespaces: the
// --module-config-path directories when given, the default ones otherwise.
func ModuleStore(rt *config.Runtime) (*config.Store, error) {
	dirs, err := config.DefaultDirs()
	if len(rt.ModuleConfigPaths) > 0 {
		dirs, err = config.DirsFromPaths(rt.ModuleConfigPaths)
	}
	if err != nil {
		return nil, configError(err, "")
	}
	loader, err := config.NewFileLoader(dirs...)
	if err != nil {
		return nil, configError(err, "")
	}
	return config.NewStore(loader), nil
}

// Discover builds the registry of the session from the compiled-in catalog
// and the manifests on the module search path. Skipped manifests are logged
// as warnings.
func Discover(ctx context.Context, catalog *registry.Catalog, rt *config.Runtime, logger *log.Logger) (*registry.Registry, []discovery.Diagnostic, error) {
	res, err := discovery.New(catalog, logger).Discover(ctx, rt.ModulePaths...)
	if err != nil {
		return nil, nil, issue.WrapWithContext(err, "discover modules", "")
	}
	for _, d := range res.Diagnostics {
		logger.Warn("ignoring module manifest", "path", d.Path, "code", d.Code, "reason", d.Message, "err", d.Cause)
	}
	reg, err := res.Registry()
	if err != nil {
		return nil, res.Diagnostics, issue.WrapWithContext(err, "discover modules", "")
	}
	return reg, res.Diagnostics, nil
}

func configError(err error, namespace string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(namespace).
		WithSuggestion("Run with --verbose to see which layer is at fault").
		WithSuggestion("Set " + config.ConfigPathsEnv + " to use other configuration directories").
		Wrap(err).
		BuildError()
}
