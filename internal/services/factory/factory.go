// Package factory maps service names to adapter constructors. It is the
// only place that knows every concrete adapter; the orchestrator receives
// it as a plain function and stays decoupled from vendor packages.
package factory

import (
	"fmt"
	"sort"
	"strings"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/internal/services/aws"
	"fluorite-flake/internal/services/github"
	"fluorite-flake/internal/services/system"
	"fluorite-flake/internal/services/turso"
	"fluorite-flake/internal/services/vercel"
	"fluorite-flake/internal/services/wrangler"
	"fluorite-flake/internal/vendorcli"
)

type constructor func(runner vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter

var constructors = map[string]constructor{
	"github": func(r vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return github.New(r, cfg)
	},
	"vercel": func(r vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return vercel.New(r, cfg)
	},
	"turso": func(r vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return turso.New(r, cfg)
	},
	"wrangler": func(r vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return wrangler.New(r, cfg)
	},
	"aws": func(_ vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return aws.New(cfg)
	},
	"system": func(_ vendorcli.Runner, cfg config.ServiceConfig) services.ServiceAdapter {
		return system.New(cfg)
	},
}

// KnownServices returns the service names the factory can build, sorted.
func KnownServices() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the adapter registered under name. Unknown names fail with an
// error that lists what is available.
func New(runner vendorcli.Runner, name string, cfg config.ServiceConfig) (services.ServiceAdapter, error) {
	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q (known: %s)", name, strings.Join(KnownServices(), ", "))
	}
	return build(runner, cfg), nil
}

// Default returns an orchestrator-compatible factory function over the
// local PATH.
func Default() func(name string, cfg config.ServiceConfig) (services.ServiceAdapter, error) {
	runner := vendorcli.NewExecRunner()
	return func(name string, cfg config.ServiceConfig) (services.ServiceAdapter, error) {
		return New(runner, name, cfg)
	}
}
