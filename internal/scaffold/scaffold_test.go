package scaffold

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Name:           "my-app",
		Framework:      FrameworkNextJS,
		Database:       DatabaseTurso,
		ORM:            ORMDrizzle,
		Storage:        StorageNone,
		Auth:           AuthNone,
		Deployment:     DeployVercel,
		PackageManager: PackageManagerPnpm,
	}
}

func TestValidateAcceptsGoodRequest(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		message string
	}{
		{"bad name", func(r *Request) { r.Name = "My App" }, "name"},
		{"unknown framework", func(r *Request) { r.Framework = "rails" }, "framework"},
		{"flutter with prisma", func(r *Request) {
			r.Framework = FrameworkFlutter
			r.Database = DatabaseNone
			r.ORM = ORMPrisma
			r.Deployment = DeployNone
		}, "JS-only"},
		{"orm without database", func(r *Request) { r.Database = DatabaseNone }, "requires a database"},
		{"d1 off cloudflare", func(r *Request) { r.Database = DatabaseD1 }, "cloudflare"},
		{"prisma with d1", func(r *Request) {
			r.Database = DatabaseD1
			r.ORM = ORMPrisma
			r.Deployment = DeployCloudflare
			r.Framework = FrameworkNextJS
		}, "drizzle"},
		{"expo with vercel", func(r *Request) { r.Framework = FrameworkExpo }, "EAS"},
		{"blob off vercel", func(r *Request) {
			r.Storage = StorageVercelBlob
			r.Deployment = DeployNone
		}, "vercel deployment"},
		{"r2 off cloudflare", func(r *Request) { r.Storage = StorageR2 }, "cloudflare deployment"},
		{"tauri with clerk", func(r *Request) {
			r.Framework = FrameworkTauri
			r.Auth = AuthClerk
			r.Deployment = DeployNone
		}, "better-auth"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	r := Request{Name: "BAD", Framework: "rails", Database: "oracle", ORM: "hibernate", Storage: "floppy", Auth: "ldap", Deployment: "ftp", PackageManager: "yarn2"}
	err := r.Validate()
	require.Error(t, err)
	for _, fragment := range []string{"name", "framework", "database", "orm", "storage", "auth", "deployment", "package manager"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestBuildPlanNextJSFullStack(t *testing.T) {
	plan, err := BuildPlan(validRequest())
	require.NoError(t, err)

	paths := plan.Paths()
	assert.Contains(t, paths, "package.json")
	assert.Contains(t, paths, "tsconfig.json")
	assert.Contains(t, paths, "app/page.tsx")
	assert.Contains(t, paths, "drizzle.config.ts")
	assert.Contains(t, paths, "src/db/schema.ts")
	assert.Contains(t, paths, "vercel.json")
	assert.Contains(t, paths, ".env.example")
	assert.NotContains(t, paths, "wrangler.toml")
	assert.NotContains(t, paths, "pubspec.yaml")
}

func TestBuildPlanFlutter(t *testing.T) {
	plan, err := BuildPlan(Request{
		Name:           "my-app",
		Framework:      FrameworkFlutter,
		Database:       DatabaseNone,
		ORM:            ORMNone,
		Storage:        StorageNone,
		Auth:           AuthNone,
		Deployment:     DeployNone,
		PackageManager: PackageManagerPnpm,
	})
	require.NoError(t, err)

	paths := plan.Paths()
	assert.Contains(t, paths, "pubspec.yaml")
	assert.Contains(t, paths, "lib/main.dart")
	assert.NotContains(t, paths, "package.json")

	for _, f := range plan.Files {
		if f.Path == "pubspec.yaml" {
			assert.Contains(t, string(f.Contents), "name: my_app", "dashes become underscores for dart")
		}
	}
}

func TestPackageJSONComposesStack(t *testing.T) {
	plan, err := BuildPlan(validRequest())
	require.NoError(t, err)

	var pkg struct {
		Name            string            `json:"name"`
		Private         bool              `json:"private"`
		PackageManager  string            `json:"packageManager"`
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	for _, f := range plan.Files {
		if f.Path == "package.json" {
			require.NoError(t, json.Unmarshal(f.Contents, &pkg))
		}
	}

	assert.Equal(t, "my-app", pkg.Name)
	assert.True(t, pkg.Private)
	assert.Equal(t, "pnpm@9.15.0", pkg.PackageManager)
	assert.Contains(t, pkg.Dependencies, "next")
	assert.Contains(t, pkg.Dependencies, "drizzle-orm")
	assert.Contains(t, pkg.Dependencies, "@libsql/client")
	assert.Contains(t, pkg.DevDependencies, "drizzle-kit")
	assert.Equal(t, "drizzle-kit migrate", pkg.Scripts["db:migrate"])
	assert.Equal(t, "vercel deploy --prod", pkg.Scripts["deploy"])
	assert.NotContains(t, pkg.DevDependencies, "wrangler")
}

func TestBuildPlanCloudflareD1(t *testing.T) {
	r := validRequest()
	r.Database = DatabaseD1
	r.Deployment = DeployCloudflare
	r.Storage = StorageR2

	plan, err := BuildPlan(r)
	require.NoError(t, err)
	assert.Contains(t, plan.Paths(), "wrangler.toml")

	for _, f := range plan.Files {
		if f.Path == "wrangler.toml" {
			assert.Contains(t, string(f.Contents), "d1_databases")
			assert.Contains(t, string(f.Contents), "r2_buckets")
			assert.Contains(t, string(f.Contents), `bucket_name = "my-app-assets"`)
			assert.Contains(t, string(f.Contents), `name = "my-app"`)
		}
	}
}

func TestBuildPlanStorageAndAuthProviders(t *testing.T) {
	r := validRequest()
	r.Storage = StorageVercelBlob
	r.Auth = AuthBetterAuth

	plan, err := BuildPlan(r)
	require.NoError(t, err)
	assert.Contains(t, plan.Paths(), "src/lib/auth.ts")

	for _, f := range plan.Files {
		switch f.Path {
		case "package.json":
			assert.Contains(t, string(f.Contents), "@vercel/blob")
			assert.Contains(t, string(f.Contents), "better-auth")
		case ".env.example":
			assert.Contains(t, string(f.Contents), "BLOB_READ_WRITE_TOKEN=")
			assert.Contains(t, string(f.Contents), "BETTER_AUTH_SECRET=")
		}
	}
}

func TestWriteCreatesFilesAndRefusesNonEmptyDir(t *testing.T) {
	plan, err := BuildPlan(validRequest())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "my-app")
	require.NoError(t, plan.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"my-app"`)

	_, err = os.Stat(filepath.Join(dir, "src", "db", "schema.ts"))
	assert.NoError(t, err, "nested directories are created")

	err = plan.Write(dir)
	require.Error(t, err, "a second write into the same directory is refused")
	assert.Contains(t, err.Error(), "not empty")
}

func TestReadmeMentionsStack(t *testing.T) {
	plan, err := BuildPlan(validRequest())
	require.NoError(t, err)

	for _, f := range plan.Files {
		if f.Path == "README.md" {
			readme := string(f.Contents)
			assert.Contains(t, readme, "My-App")
			assert.Contains(t, readme, "turso")
			assert.Contains(t, readme, "drizzle")
			assert.Contains(t, readme, "pnpm install")
		}
	}
}
