package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"fluorite-flake/pkg/logging"
)

// File is one planned output file with rendered contents.
type File struct {
	Path     string
	Contents []byte
}

// Plan is the full file set for one request, rendered but not yet written.
// Splitting planning from writing keeps generation testable and lets the
// CLI show a dry-run manifest.
type Plan struct {
	Request Request
	Files   []File
}

// Paths returns the planned file paths in order.
func (p Plan) Paths() []string {
	paths := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// BuildPlan validates the request and renders every file it implies.
func BuildPlan(r Request) (*Plan, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{Request: r}
	add := func(path, tmpl string) error {
		contents, err := render(tmpl, r)
		if err != nil {
			return err
		}
		plan.Files = append(plan.Files, File{Path: path, Contents: contents})
		return nil
	}

	if err := add("README.md", "readme"); err != nil {
		return nil, err
	}
	if err := add(".gitignore", "gitignore"); err != nil {
		return nil, err
	}

	if r.IsJS() {
		pkg, err := buildPackageJSON(r)
		if err != nil {
			return nil, err
		}
		plan.Files = append(plan.Files, File{Path: "package.json", Contents: pkg})
		if err := add("tsconfig.json", "tsconfig"); err != nil {
			return nil, err
		}
	}

	if r.Database != DatabaseNone || r.Deployment == DeployVercel || r.Storage != StorageNone || r.Auth != AuthNone {
		if err := add(".env.example", "env"); err != nil {
			return nil, err
		}
	}

	switch r.Framework {
	case FrameworkNextJS:
		if err := add("app/page.tsx", "nextpage"); err != nil {
			return nil, err
		}
	case FrameworkTauri:
		if err := add("src-tauri/tauri.conf.json", "tauriconf"); err != nil {
			return nil, err
		}
	case FrameworkFlutter:
		if err := add("pubspec.yaml", "pubspec"); err != nil {
			return nil, err
		}
		if err := add("lib/main.dart", "fluttermain"); err != nil {
			return nil, err
		}
	}

	switch r.ORM {
	case ORMDrizzle:
		if err := add("drizzle.config.ts", "drizzleconfig"); err != nil {
			return nil, err
		}
		if err := add("src/db/schema.ts", "drizzleschema"); err != nil {
			return nil, err
		}
	case ORMPrisma:
		if err := add("prisma/schema.prisma", "prismaschema"); err != nil {
			return nil, err
		}
	}

	if r.Auth == AuthBetterAuth {
		if err := add("src/lib/auth.ts", "betterauth"); err != nil {
			return nil, err
		}
	}

	switch r.Deployment {
	case DeployCloudflare:
		if err := add("wrangler.toml", "wrangler"); err != nil {
			return nil, err
		}
	case DeployVercel:
		if err := add("vercel.json", "vercel"); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// Write materializes the plan under dir. The target must not already
// contain a generated project; an existing non-empty directory is refused
// so a typo cannot clobber real work.
func (p *Plan) Write(dir string) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return fmt.Errorf("scaffold: directory %s is not empty", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scaffold: creating %s: %w", dir, err)
	}

	for _, f := range p.Files {
		target := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("scaffold: creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, f.Contents, 0o644); err != nil {
			return fmt.Errorf("scaffold: writing %s: %w", target, err)
		}
		logging.Debug("Scaffold", "Wrote %s", target)
	}

	logging.Info("Scaffold", "Generated %s (%d files) in %s", p.Request.Name, len(p.Files), dir)
	return nil
}
