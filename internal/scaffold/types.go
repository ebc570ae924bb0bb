// Package scaffold generates new projects: it validates a requested stack
// combination, plans the file set, and renders it to disk.
package scaffold

import (
	"fmt"
	"regexp"
	"strings"
)

// Framework selects the application framework of a generated project.
type Framework string

const (
	FrameworkNextJS  Framework = "nextjs"
	FrameworkExpo    Framework = "expo"
	FrameworkTauri   Framework = "tauri"
	FrameworkFlutter Framework = "flutter"
)

// Database selects the backing database.
type Database string

const (
	DatabaseNone  Database = "none"
	DatabaseTurso Database = "turso"
	DatabaseD1    Database = "d1"
)

// ORM selects the database access layer.
type ORM string

const (
	ORMNone    ORM = "none"
	ORMPrisma  ORM = "prisma"
	ORMDrizzle ORM = "drizzle"
)

// Deployment selects the hosting target.
type Deployment string

const (
	DeployNone       Deployment = "none"
	DeployVercel     Deployment = "vercel"
	DeployCloudflare Deployment = "cloudflare"
)

// Storage selects the object/file storage provider wired into the project.
type Storage string

const (
	StorageNone       Storage = "none"
	StorageVercelBlob Storage = "vercel-blob"
	StorageR2         Storage = "cloudflare-r2"
	StorageS3         Storage = "aws-s3"
)

// Auth selects the authentication provider.
type Auth string

const (
	AuthNone       Auth = "none"
	AuthBetterAuth Auth = "better-auth"
	AuthClerk      Auth = "clerk"
)

// PackageManager selects the JS package manager recorded in the project.
type PackageManager string

const (
	PackageManagerPnpm PackageManager = "pnpm"
	PackageManagerNpm  PackageManager = "npm"
	PackageManagerBun  PackageManager = "bun"
)

// Request describes one project to generate.
type Request struct {
	Name           string         `json:"name"`
	Dir            string         `json:"dir"`
	Framework      Framework      `json:"framework"`
	Database       Database       `json:"database"`
	ORM            ORM            `json:"orm"`
	Storage        Storage        `json:"storage"`
	Auth           Auth           `json:"auth"`
	Deployment     Deployment     `json:"deployment"`
	PackageManager PackageManager `json:"packageManager"`
	Git            bool           `json:"git"`
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// jsFrameworks marks the frameworks whose projects are JS/TS workspaces.
// The database and ORM layers only apply to these.
var jsFrameworks = map[Framework]bool{
	FrameworkNextJS: true,
	FrameworkExpo:   true,
	FrameworkTauri:  true,
}

// Validate rejects malformed names and stack combinations that cannot
// work. All problems are reported at once.
func (r Request) Validate() error {
	var problems []string

	if !namePattern.MatchString(r.Name) {
		problems = append(problems, fmt.Sprintf("name %q must be lowercase letters, digits and dashes, starting with a letter", r.Name))
	}

	switch r.Framework {
	case FrameworkNextJS, FrameworkExpo, FrameworkTauri, FrameworkFlutter:
	default:
		problems = append(problems, fmt.Sprintf("unknown framework %q", r.Framework))
	}

	switch r.Database {
	case DatabaseNone, DatabaseTurso, DatabaseD1:
	default:
		problems = append(problems, fmt.Sprintf("unknown database %q", r.Database))
	}

	switch r.ORM {
	case ORMNone, ORMPrisma, ORMDrizzle:
	default:
		problems = append(problems, fmt.Sprintf("unknown orm %q", r.ORM))
	}

	switch r.Storage {
	case StorageNone, StorageVercelBlob, StorageR2, StorageS3:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage %q", r.Storage))
	}

	switch r.Auth {
	case AuthNone, AuthBetterAuth, AuthClerk:
	default:
		problems = append(problems, fmt.Sprintf("unknown auth provider %q", r.Auth))
	}

	switch r.Deployment {
	case DeployNone, DeployVercel, DeployCloudflare:
	default:
		problems = append(problems, fmt.Sprintf("unknown deployment %q", r.Deployment))
	}

	switch r.PackageManager {
	case PackageManagerPnpm, PackageManagerNpm, PackageManagerBun:
	default:
		problems = append(problems, fmt.Sprintf("unknown package manager %q", r.PackageManager))
	}

	if r.Framework == FrameworkFlutter {
		if r.ORM != ORMNone {
			problems = append(problems, fmt.Sprintf("flutter projects cannot use the %s ORM; it is JS-only", r.ORM))
		}
		if r.Database != DatabaseNone {
			problems = append(problems, "flutter projects manage their own persistence; database must be none")
		}
		if r.Deployment != DeployNone {
			problems = append(problems, "flutter projects are not deployed through vercel or cloudflare")
		}
		if r.Storage != StorageNone {
			problems = append(problems, "the storage providers are JS-only; flutter projects must use none")
		}
		if r.Auth != AuthNone {
			problems = append(problems, fmt.Sprintf("auth provider %s is JS-only", r.Auth))
		}
	}

	if r.ORM != ORMNone && r.Database == DatabaseNone {
		problems = append(problems, fmt.Sprintf("orm %s requires a database", r.ORM))
	}
	if r.Database == DatabaseD1 && r.Deployment != DeployCloudflare {
		problems = append(problems, "d1 is only available on cloudflare deployments")
	}
	if r.Database == DatabaseD1 && r.ORM == ORMPrisma {
		problems = append(problems, "prisma does not support d1; use drizzle")
	}
	if r.Framework == FrameworkExpo && r.Deployment != DeployNone {
		problems = append(problems, "expo apps ship through EAS, not vercel or cloudflare")
	}
	if r.Storage == StorageVercelBlob && r.Deployment != DeployVercel {
		problems = append(problems, "vercel-blob storage requires a vercel deployment")
	}
	if r.Storage == StorageR2 && r.Deployment != DeployCloudflare {
		problems = append(problems, "cloudflare-r2 storage requires a cloudflare deployment")
	}
	if r.Framework == FrameworkTauri && r.Auth == AuthClerk {
		problems = append(problems, "clerk does not support tauri; use better-auth")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid request: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsJS reports whether the generated project is a JS/TS workspace.
func (r Request) IsJS() bool {
	return jsFrameworks[r.Framework]
}
