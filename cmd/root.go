package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"fluorite-flake/pkg/logging"
)

// rootCmd is the base command; every subcommand hangs off it.
var rootCmd = &cobra.Command{
	Use:   "fluorite-flake",
	Short: "Scaffold full-stack projects and monitor their services",
	Long: `fluorite-flake generates ready-to-run projects (Next.js, Expo, Tauri,
Flutter) wired to your chosen database, storage, auth and deployment
providers, and then keeps watching them: a live dashboard aggregates the
health, metrics and logs of the vendor services behind each project.`,
	// SilenceUsage keeps handled errors from re-printing the usage block.
	SilenceUsage: true,
}

var (
	flagConfigPath string
	flagVerbose    bool
)

// SetVersion injects the build version from main.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the injected build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the command tree. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "fluorite-flake version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// logLevel maps the verbosity flag onto the logging level.
func logLevel() logging.LogLevel {
	if flagVerbose {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"config directory (default $HOME/.config/fluorite-flake)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	// The dashboard command re-initializes logging in TUI mode itself.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logLevel(), os.Stderr)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSelfUpdateCmd(),
		newCreateCmd(),
		newDashboardCmd(),
		newIPCCmd(),
		newDoctorCmd(),
	)
}
