package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"fluorite-flake/internal/cli"
	"fluorite-flake/internal/scaffold"
	"fluorite-flake/internal/vendorcli"
)

type createFlags struct {
	dir            string
	framework      string
	database       string
	orm            string
	storage        string
	auth           string
	deployment     string
	packageManager string
	git            bool
	dryRun         bool
	nonInteractive bool
}

// newCreateCmd creates the project generator command.
func newCreateCmd() *cobra.Command {
	flags := createFlags{}

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Generate a new project",
		Long: `Generates a ready-to-run project for the chosen framework, wired to the
selected database, ORM, storage, auth and deployment providers. Options not
given as flags are collected interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runCreate(cmd, name, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dir, "dir", "", "target directory (default ./<name>)")
	cmd.Flags().StringVar(&flags.framework, "framework", "", "nextjs, expo, tauri or flutter")
	cmd.Flags().StringVar(&flags.database, "database", "none", "none, turso or d1")
	cmd.Flags().StringVar(&flags.orm, "orm", "none", "none, prisma or drizzle")
	cmd.Flags().StringVar(&flags.storage, "storage", "none", "none, vercel-blob, cloudflare-r2 or aws-s3")
	cmd.Flags().StringVar(&flags.auth, "auth", "none", "none, better-auth or clerk")
	cmd.Flags().StringVar(&flags.deployment, "deployment", "none", "none, vercel or cloudflare")
	cmd.Flags().StringVar(&flags.packageManager, "package-manager", "pnpm", "pnpm, npm or bun")
	cmd.Flags().BoolVar(&flags.git, "git", true, "initialize a git repository")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the file plan without writing")
	cmd.Flags().BoolVar(&flags.nonInteractive, "yes", false, "skip the wizard, use flags and defaults as-is")

	return cmd
}

func runCreate(cmd *cobra.Command, name string, flags createFlags) error {
	req := scaffold.Request{
		Name:           name,
		Framework:      scaffold.Framework(flags.framework),
		Database:       scaffold.Database(flags.database),
		ORM:            scaffold.ORM(flags.orm),
		Storage:        scaffold.Storage(flags.storage),
		Auth:           scaffold.Auth(flags.auth),
		Deployment:     scaffold.Deployment(flags.deployment),
		PackageManager: scaffold.PackageManager(flags.packageManager),
		Git:            flags.git,
	}

	if !flags.nonInteractive {
		if err := runWizard(cmd, &req); err != nil {
			return err
		}
	}
	if req.Name == "" {
		return fmt.Errorf("project name is required")
	}

	plan, err := scaffold.BuildPlan(req)
	if err != nil {
		return err
	}

	dir := flags.dir
	if dir == "" {
		dir = filepath.Join(".", req.Name)
	}
	req.Dir = dir

	if flags.dryRun {
		fmt.Printf("Would generate %d files in %s:\n", len(plan.Files), dir)
		for _, path := range plan.Paths() {
			fmt.Println("  " + path)
		}
		return nil
	}

	err = cli.WithSpinner(fmt.Sprintf("Generating %s", req.Name), flagVerbose, func() error {
		return plan.Write(dir)
	})
	if err != nil {
		return err
	}

	if req.Git {
		if err := initGitRepo(cmd, dir); err != nil {
			// The project itself is fine; the user can git init by hand.
			fmt.Fprintf(os.Stderr, "warning: git init failed: %v\n", err)
		}
	}

	fmt.Printf("Created %s (%d files) in %s\n", req.Name, len(plan.Files), dir)
	if req.IsJS() {
		fmt.Printf("Next: cd %s && %s install\n", dir, req.PackageManager)
	} else {
		fmt.Printf("Next: cd %s && flutter pub get\n", dir)
	}
	return nil
}

// runWizard prompts for every option whose flag was not set explicitly.
func runWizard(cmd *cobra.Command, req *scaffold.Request) error {
	var groups []*huh.Group

	if req.Name == "" {
		name := ""
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Placeholder("my-app").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("project name is required")
					}
					return nil
				}),
		))
		defer func() {
			if name != "" {
				req.Name = name
			}
		}()
	}

	selects := []struct {
		flag    string
		title   string
		value   *string
		options []string
	}{
		{"framework", "Framework", (*string)(&req.Framework), []string{"nextjs", "expo", "tauri", "flutter"}},
		{"database", "Database", (*string)(&req.Database), []string{"none", "turso", "d1"}},
		{"orm", "ORM", (*string)(&req.ORM), []string{"none", "prisma", "drizzle"}},
		{"storage", "Storage", (*string)(&req.Storage), []string{"none", "vercel-blob", "cloudflare-r2", "aws-s3"}},
		{"auth", "Auth provider", (*string)(&req.Auth), []string{"none", "better-auth", "clerk"}},
		{"deployment", "Deployment", (*string)(&req.Deployment), []string{"none", "vercel", "cloudflare"}},
		{"package-manager", "Package manager", (*string)(&req.PackageManager), []string{"pnpm", "npm", "bun"}},
	}
	for _, sel := range selects {
		if cmd.Flags().Changed(sel.flag) {
			continue
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title(sel.title).
				Options(huh.NewOptions(sel.options...)...).
				Value(sel.value),
		))
	}

	if len(groups) == 0 {
		return nil
	}
	if err := huh.NewForm(groups...).Run(); err != nil {
		return fmt.Errorf("wizard aborted: %w", err)
	}
	return nil
}

// initGitRepo creates the repository and the initial commit.
func initGitRepo(cmd *cobra.Command, dir string) error {
	runner := vendorcli.NewExecRunner()
	ctx := cmd.Context()

	if _, err := runner.Run(ctx, "git", "-C", dir, "init"); err != nil {
		return err
	}
	if _, err := runner.Run(ctx, "git", "-C", dir, "add", "-A"); err != nil {
		return err
	}
	_, err := runner.Run(ctx, "git", "-C", dir, "commit", "-m", "Initial scaffold")
	return err
}
