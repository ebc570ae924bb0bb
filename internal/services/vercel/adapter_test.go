package vercel

import (
	"context"
	"errors"
	"testing"

	"fluorite-flake/internal/services"
	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listLine = "vercel list --json"

func readyRunner() *vendorcli.FakeRunner {
	r := vendorcli.NewFakeRunner()
	r.Install("vercel")
	r.Script("vercel whoami", "octocat")
	r.Script(listLine, `{"deployments":[
		{"uid":"dpl_1","name":"flake","url":"flake-abc.vercel.app","state":"READY","target":"production","created":1767945600000},
		{"uid":"dpl_2","name":"flake","url":"flake-def.vercel.app","state":"ERROR","target":"preview","created":1767949200000}
	]}`)
	return r
}

func TestLifecycle(t *testing.T) {
	a := New(readyRunner(), nil)
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx))
	ok, err := a.Authenticate(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, a.Connect(ctx))
	assert.True(t, a.GetStatus().Connected)
}

func TestConnectWithoutLoginRejected(t *testing.T) {
	r := vendorcli.NewFakeRunner()
	r.Install("vercel")
	r.ScriptError("vercel whoami", errors.New("no credentials found"))
	a := New(r, nil)

	err := a.Connect(context.Background())
	require.ErrorIs(t, err, services.ErrNotAuthenticated)
	assert.False(t, a.GetStatus().Connected)
}

func TestConnectFailureRecordsStatusError(t *testing.T) {
	r := readyRunner()
	r.ScriptError(listLine, errors.New("api down"))
	a := New(r, nil)

	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, a.GetStatus().Connected)
	assert.Contains(t, a.GetStatus().Error, "api down")
}

func TestHealthCheckWarnsOnErroredDeployment(t *testing.T) {
	a := New(readyRunner(), nil)

	hs := a.HealthCheck(context.Background())
	assert.Equal(t, services.HealthDegraded, hs.Status)
	require.Len(t, hs.Checks, 3)
	assert.Equal(t, services.CheckWarn, hs.Checks[2].Status)
}

func TestGetMetricsSampled(t *testing.T) {
	a := New(readyRunner(), nil)

	m, err := a.GetMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, m.Sampled)
	assert.Equal(t, 1, m.Errors.TotalErrors)
	assert.InDelta(t, 50.0, m.Performance.ErrorRate, 1e-9)
}

func TestListResources(t *testing.T) {
	a := New(readyRunner(), nil)

	resources, err := a.ListResources(context.Background(), "deployment")
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "dpl_1", resources[0].ID)
	assert.Equal(t, "ready", resources[0].Status)

	none, err := a.ListResources(context.Background(), "bucket")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetLogsTailsLatestDeployment(t *testing.T) {
	r := readyRunner()
	r.TailLines["vercel logs flake-abc.vercel.app"] = []string{
		"GET /api/health 200",
		"ERROR unhandled rejection",
	}
	a := New(r, nil)

	ch, err := a.GetLogs(context.Background(), services.LogOptions{})
	require.NoError(t, err)

	var entries []services.LogEntry
	for e := range ch {
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "error", entries[1].Level)
}

func TestScopeIsAppended(t *testing.T) {
	r := vendorcli.NewFakeRunner()
	r.Install("vercel")
	r.Script("vercel whoami --scope acme", "octocat")
	a := New(r, map[string]string{"scope": "acme"})

	ok, err := a.Authenticate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.CallCount("vercel whoami --scope acme"))
}

func TestDeployAction(t *testing.T) {
	r := readyRunner()
	r.Script("vercel deploy --yes --prod", "https://flake.vercel.app")
	a := New(r, nil)

	result := a.ExecuteAction(context.Background(), services.Action{
		Type:   "deploy",
		Params: map[string]string{"target": "production"},
	})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "vercel.app")
}

func TestRollbackRequiresDeployment(t *testing.T) {
	a := New(readyRunner(), nil)

	result := a.ExecuteAction(context.Background(), services.Action{Type: "rollback"})
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, services.ActionErrFailed, result.Error.Code)
}
