// Package doctor checks the local environment for the external tools the
// scaffolder and the service adapters shell out to.
package doctor

import (
	"context"
	"fmt"
	"strings"

	"fluorite-flake/internal/vendorcli"
)

// CheckState grades one tool check.
type CheckState string

const (
	StatePass CheckState = "pass"
	StateWarn CheckState = "warn"
	StateFail CheckState = "fail"
)

// Result is the outcome of one tool check.
type Result struct {
	Tool       string     `json:"tool"`
	State      CheckState `json:"state"`
	Path       string     `json:"path,omitempty"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}

// Report is a full environment check run.
type Report struct {
	Results []Result `json:"results"`
}

// Healthy reports whether no check failed. Warnings do not count against it.
func (r Report) Healthy() bool {
	for _, res := range r.Results {
		if res.State == StateFail {
			return false
		}
	}
	return true
}

// Summary renders a one-line tally.
func (r Report) Summary() string {
	var pass, warn, fail int
	for _, res := range r.Results {
		switch res.State {
		case StatePass:
			pass++
		case StateWarn:
			warn++
		case StateFail:
			fail++
		}
	}
	return fmt.Sprintf("%d ok, %d warnings, %d missing", pass, warn, fail)
}

type toolCheck struct {
	tool       string
	required   bool
	usedFor    string
	suggestion string
}

// Required tools break core flows when absent; optional ones only disable
// the vendor integrations that shell out to them.
var toolChecks = []toolCheck{
	{"node", true, "running generated projects", "install Node.js 20 or newer"},
	{"pnpm", true, "installing project dependencies", "corepack enable pnpm"},
	{"git", true, "initializing project repositories", "install git"},
	{"gh", false, "the GitHub integration", "https://cli.github.com"},
	{"vercel", false, "the Vercel integration", "pnpm add -g vercel"},
	{"turso", false, "the Turso integration", "https://docs.turso.tech/cli/installation"},
	{"wrangler", false, "the Cloudflare Workers integration", "pnpm add -g wrangler"},
	{"aws", false, "the AWS integration", "https://aws.amazon.com/cli/"},
	{"flutter", false, "Flutter project scaffolding", "https://docs.flutter.dev/get-started/install"},
	{"cargo", false, "Tauri project scaffolding", "https://rustup.rs"},
}

// Run checks every known tool against the given runner and assembles a
// report. Missing required tools fail; missing optional tools warn.
func Run(ctx context.Context, runner vendorcli.Runner) Report {
	report := Report{Results: make([]Result, 0, len(toolChecks))}
	for _, check := range toolChecks {
		report.Results = append(report.Results, runOne(ctx, runner, check))
	}
	return report
}

func runOne(ctx context.Context, runner vendorcli.Runner, check toolCheck) Result {
	path, err := runner.LookPath(check.tool)
	if err != nil {
		state := StateWarn
		if check.required {
			state = StateFail
		}
		return Result{
			Tool:       check.tool,
			State:      state,
			Message:    fmt.Sprintf("not installed; needed for %s", check.usedFor),
			Suggestion: check.suggestion,
		}
	}

	result := Result{
		Tool:    check.tool,
		State:   StatePass,
		Path:    path,
		Message: "installed",
	}
	if version, err := runner.Run(ctx, check.tool, "--version"); err == nil {
		result.Message = firstLine(version)
	}
	return result
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
