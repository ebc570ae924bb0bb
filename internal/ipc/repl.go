package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// REPL is an interactive shell over a connected Client. Each line is either
// a built-in command or a tool invocation: `<tool> [json-args]`.
type REPL struct {
	client *Client
	rl     *readline.Instance
}

// NewREPL creates a REPL over an already connected client.
func NewREPL(client *Client) *REPL {
	return &REPL{client: client}
}

// Run processes lines until exit, EOF or context cancellation.
func (r *REPL) Run(ctx context.Context) error {
	tools, err := r.client.ListTools(ctx)
	if err != nil {
		return err
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(tools)+2)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		items = append(items, readline.PcItem(tool.Name))
	}
	sort.Strings(names)
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "flake> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".fluorite_flake_history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("creating readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	fmt.Println("Connected. Type 'help' for tools, 'exit' to quit.")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Println("Tools:")
			for _, name := range names {
				fmt.Println("  " + name)
			}
			fmt.Println("Usage: <tool> [json-args], e.g. service_data {\"name\":\"github\"}")
			continue
		}

		r.dispatch(ctx, line)
	}
}

func (r *REPL) dispatch(ctx context.Context, line string) {
	name, rest, _ := strings.Cut(line, " ")
	var args map[string]interface{}
	if rest = strings.TrimSpace(rest); rest != "" {
		if err := json.Unmarshal([]byte(rest), &args); err != nil {
			fmt.Printf("bad arguments (expected JSON object): %v\n", err)
			return
		}
	}

	output, err := r.client.CallTool(ctx, name, args)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(output)
}
