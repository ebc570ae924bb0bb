package scaffold

import (
	"encoding/json"
	"fmt"
)

// packageJSON is synthesized per request rather than templated, so
// dependency sets compose cleanly across stack choices.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	PackageManager  string            `json:"packageManager,omitempty"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Pinned dependency versions for generated projects.
var (
	nextDeps = map[string]string{
		"next":      "^15.1.0",
		"react":     "^19.0.0",
		"react-dom": "^19.0.0",
	}
	nextDevDeps = map[string]string{
		"typescript":  "^5.7.0",
		"@types/node": "^22.10.0",
		"@types/react": "^19.0.0",
	}
	expoDeps = map[string]string{
		"expo":         "~52.0.0",
		"react":        "18.3.1",
		"react-native": "0.76.5",
	}
	tauriDevDeps = map[string]string{
		"@tauri-apps/cli": "^2.1.0",
		"typescript":      "^5.7.0",
		"vite":            "^6.0.0",
	}
	prismaDeps    = map[string]string{"@prisma/client": "^6.1.0"}
	prismaDevDeps = map[string]string{"prisma": "^6.1.0"}
	drizzleDeps   = map[string]string{"drizzle-orm": "^0.38.0"}
	drizzleDevDeps = map[string]string{"drizzle-kit": "^0.30.0"}
	tursoDeps     = map[string]string{"@libsql/client": "^0.14.0"}
	wranglerDevDeps = map[string]string{"wrangler": "^3.99.0"}
	blobDeps      = map[string]string{"@vercel/blob": "^0.27.0"}
	s3Deps        = map[string]string{"@aws-sdk/client-s3": "^3.712.0"}
	betterAuthDeps = map[string]string{"better-auth": "^1.1.0"}
	clerkDeps     = map[string]string{"@clerk/nextjs": "^6.9.0"}
)

var packageManagerPins = map[PackageManager]string{
	PackageManagerPnpm: "pnpm@9.15.0",
	PackageManagerNpm:  "npm@10.9.0",
	PackageManagerBun:  "bun@1.1.40",
}

// buildPackageJSON assembles the manifest for a JS framework request.
func buildPackageJSON(r Request) ([]byte, error) {
	if !r.IsJS() {
		return nil, fmt.Errorf("scaffold: %s projects have no package.json", r.Framework)
	}

	pkg := packageJSON{
		Name:            r.Name,
		Version:         "0.1.0",
		Private:         true,
		PackageManager:  packageManagerPins[r.PackageManager],
		Scripts:         map[string]string{},
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
	}

	switch r.Framework {
	case FrameworkNextJS:
		merge(pkg.Dependencies, nextDeps)
		merge(pkg.DevDependencies, nextDevDeps)
		pkg.Scripts["dev"] = "next dev"
		pkg.Scripts["build"] = "next build"
		pkg.Scripts["start"] = "next start"
		pkg.Scripts["lint"] = "next lint"
	case FrameworkExpo:
		merge(pkg.Dependencies, expoDeps)
		pkg.Scripts["start"] = "expo start"
		pkg.Scripts["android"] = "expo start --android"
		pkg.Scripts["ios"] = "expo start --ios"
	case FrameworkTauri:
		merge(pkg.DevDependencies, tauriDevDeps)
		pkg.Scripts["dev"] = "vite"
		pkg.Scripts["build"] = "vite build"
		pkg.Scripts["tauri"] = "tauri"
	}

	switch r.ORM {
	case ORMPrisma:
		merge(pkg.Dependencies, prismaDeps)
		merge(pkg.DevDependencies, prismaDevDeps)
		pkg.Scripts["db:migrate"] = "prisma migrate dev"
		pkg.Scripts["db:studio"] = "prisma studio"
	case ORMDrizzle:
		merge(pkg.Dependencies, drizzleDeps)
		merge(pkg.DevDependencies, drizzleDevDeps)
		pkg.Scripts["db:migrate"] = "drizzle-kit migrate"
		pkg.Scripts["db:studio"] = "drizzle-kit studio"
	}

	if r.Database == DatabaseTurso {
		merge(pkg.Dependencies, tursoDeps)
	}
	switch r.Storage {
	case StorageVercelBlob:
		merge(pkg.Dependencies, blobDeps)
	case StorageS3:
		merge(pkg.Dependencies, s3Deps)
	case StorageR2:
		// R2 binds through wrangler.toml, not a package dependency.
	}
	switch r.Auth {
	case AuthBetterAuth:
		merge(pkg.Dependencies, betterAuthDeps)
	case AuthClerk:
		merge(pkg.Dependencies, clerkDeps)
	}
	if r.Deployment == DeployCloudflare {
		merge(pkg.DevDependencies, wranglerDevDeps)
		pkg.Scripts["deploy"] = "wrangler deploy"
	}
	if r.Deployment == DeployVercel {
		pkg.Scripts["deploy"] = "vercel deploy --prod"
	}

	// MarshalIndent sorts map keys, which keeps regenerated manifests
	// diff-stable.
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("scaffold: encoding package.json: %w", err)
	}
	return append(data, '\n'), nil
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
