package doctor

import (
	"context"
	"testing"

	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEmptyEnvironment(t *testing.T) {
	report := Run(context.Background(), vendorcli.NewFakeRunner())

	assert.False(t, report.Healthy())
	require.Len(t, report.Results, len(toolChecks))

	byTool := map[string]Result{}
	for _, r := range report.Results {
		byTool[r.Tool] = r
	}
	assert.Equal(t, StateFail, byTool["node"].State, "required tools fail when missing")
	assert.Equal(t, StateWarn, byTool["vercel"].State, "optional tools only warn")
	assert.NotEmpty(t, byTool["node"].Suggestion)
}

func TestRunHealthyWithRequiredTools(t *testing.T) {
	runner := vendorcli.NewFakeRunner()
	for _, tool := range []string{"node", "pnpm", "git"} {
		runner.Install(tool)
	}
	runner.Script("node --version", "v22.11.0")
	runner.Script("pnpm --version", "9.15.0")
	runner.Script("git --version", "git version 2.47.0")

	report := Run(context.Background(), runner)
	assert.True(t, report.Healthy(), "missing optional tools must not fail the report")

	byTool := map[string]Result{}
	for _, r := range report.Results {
		byTool[r.Tool] = r
	}
	assert.Equal(t, "v22.11.0", byTool["node"].Message)
	assert.NotEmpty(t, byTool["node"].Path)
}

func TestVersionProbeFailureStillPasses(t *testing.T) {
	runner := vendorcli.NewFakeRunner()
	runner.Install("git")
	// no --version scripted: the probe errors but the tool is present

	report := Run(context.Background(), runner)
	for _, r := range report.Results {
		if r.Tool == "git" {
			assert.Equal(t, StatePass, r.State)
			assert.Equal(t, "installed", r.Message)
		}
	}
}

func TestSummaryCounts(t *testing.T) {
	report := Report{Results: []Result{
		{State: StatePass}, {State: StatePass}, {State: StateWarn}, {State: StateFail},
	}}
	assert.Equal(t, "2 ok, 1 warnings, 1 missing", report.Summary())
}
