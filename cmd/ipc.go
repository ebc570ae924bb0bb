package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fluorite-flake/internal/app"
	"fluorite-flake/internal/config"
	"fluorite-flake/internal/ipc"
)

// newIPCCmd creates the ipc command group: the MCP server plus the client
// surfaces (one-shot calls, tool listing, the REPL).
func newIPCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipc",
		Short: "Serve or talk to the dashboard over MCP",
	}
	cmd.AddCommand(
		newIPCServeCmd(),
		newIPCCallCmd(),
		newIPCToolsCmd(),
		newIPCREPLCmd(),
	)
	return cmd
}

func newIPCServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard MCP server",
		Long: `Starts the configured services and exposes the dashboard tools over
the configured transport (stdio, unix, tcp, ws or http). Editors and agents
connect here; the bundled REPL is a client of the http transport.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(app.Options{ConfigPath: flagConfigPath})
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			for _, failure := range a.StartServices(ctx) {
				fmt.Fprintf(os.Stderr, "warning: %v\n", failure)
			}

			protocol := a.Config.Protocol
			if transport != "" {
				protocol.Primary = transport
			}

			server := ipc.NewServer(protocol, a.Orchestrator, a.Runner)
			if err := server.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return server.Stop(context.Background())
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "override the configured transport: stdio, unix, tcp, ws or http")
	return cmd
}

// ipcEndpoint resolves the client endpoint: flag value, or the configured
// streamable HTTP port.
func ipcEndpoint(flagEndpoint string) (endpoint, token string, err error) {
	path := flagConfigPath
	if path == "" {
		path, err = config.DefaultConfigPath()
		if err != nil {
			return "", "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", "", err
	}
	endpoint = flagEndpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("http://127.0.0.1:%d", cfg.Protocol.HTTPPort)
	}
	return endpoint, cfg.Protocol.AuthToken, nil
}

func withIPCClient(cmd *cobra.Command, flagEndpoint string, fn func(ctx context.Context, client *ipc.Client) error) error {
	endpoint, token, err := ipcEndpoint(flagEndpoint)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ipc.NewClient(endpoint, token)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s (is `fluorite-flake ipc serve` running?): %w", endpoint, err)
	}
	defer client.Close()

	return fn(ctx, client)
}

func newIPCCallCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke one dashboard tool",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]interface{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("arguments must be a JSON object: %w", err)
				}
			}
			return withIPCClient(cmd, endpoint, func(ctx context.Context, client *ipc.Client) error {
				output, err := client.CallTool(ctx, args[0], toolArgs)
				if err != nil {
					return err
				}
				fmt.Println(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "server endpoint (default from config)")
	return cmd
}

func newIPCToolsCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the dashboard tools the server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIPCClient(cmd, endpoint, func(ctx context.Context, client *ipc.Client) error {
				tools, err := client.ListTools(ctx)
				if err != nil {
					return err
				}
				for _, tool := range tools {
					fmt.Printf("%-28s %s\n", tool.Name, tool.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "server endpoint (default from config)")
	return cmd
}

func newIPCREPLCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell over the dashboard tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIPCClient(cmd, endpoint, func(ctx context.Context, client *ipc.Client) error {
				return ipc.NewREPL(client).Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "server endpoint (default from config)")
	return cmd
}
