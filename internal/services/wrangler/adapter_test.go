package wrangler

import (
	"context"
	"errors"
	"testing"

	"fluorite-flake/internal/services"
	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyRunner() *vendorcli.FakeRunner {
	r := vendorcli.NewFakeRunner()
	r.Install("wrangler")
	r.Script("wrangler whoami", "octocat@example.com")
	r.Script("wrangler kv namespace list", `[{"id":"ns1","title":"cache"},{"id":"ns2","title":"sessions"}]`)
	r.Script("wrangler r2 bucket list", "name: assets\ncreation_date: 2026-01-01\n\nname: uploads\ncreation_date: 2026-01-02")
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
	r.Install("wrangler")
	r.ScriptError("wrangler whoami", errors.New("not authenticated"))
	a := New(r, nil)

	err := a.Connect(context.Background())
	require.ErrorIs(t, err, services.ErrNotAuthenticated)
	assert.False(t, a.GetStatus().Connected)
}

func TestListResourcesBothTypes(t *testing.T) {
	a := New(readyRunner(), nil)

	all, err := a.ListResources(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "kv-namespace", all[0].Type)
	assert.Equal(t, "cache", all[0].Name)
	assert.Equal(t, "r2-bucket", all[2].Type)
	assert.Equal(t, "assets", all[2].Name)

	buckets, err := a.ListResources(context.Background(), "r2-bucket")
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestGetLogsParsesTailEvents(t *testing.T) {
	r := readyRunner()
	r.TailLines["wrangler tail api-worker --format json"] = []string{
		`{"outcome":"ok","eventTimestamp":1767945600000,"logs":[{"message":["request","handled"],"level":"log"}]}`,
		`{"outcome":"exception","eventTimestamp":1767945601000,"logs":[],"exceptions":[{"name":"TypeError","message":"undefined is not a function"}]}`,
		"Connected to api-worker",
	}
	a := New(r, map[string]string{"worker": "api-worker"})

	ch, err := a.GetLogs(context.Background(), services.LogOptions{})
	require.NoError(t, err)

	var entries []services.LogEntry
	for e := range ch {
		entries = append(entries, e)
	}
	require.Len(t, entries, 3)
	assert.Equal(t, "request handled", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "error", entries[1].Level)
	assert.Contains(t, entries[1].Message, "TypeError")
	assert.Equal(t, "Connected to api-worker", entries[2].Message)
}

func TestGetLogsRequiresWorker(t *testing.T) {
	a := New(readyRunner(), nil)
	_, err := a.GetLogs(context.Background(), services.LogOptions{})
	assert.Error(t, err)
}

func TestHealthCheckAllPass(t *testing.T) {
	a := New(readyRunner(), nil)
	hs := a.HealthCheck(context.Background())
	assert.Equal(t, services.HealthHealthy, hs.Status)
}

func TestDeployAction(t *testing.T) {
	r := readyRunner()
	r.Script("wrangler deploy", "Deployed api-worker")
	a := New(r, nil)

	result := a.ExecuteAction(context.Background(), services.Action{Type: "deploy"})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "Deployed")
}

func TestGetMetricsUsageCounts(t *testing.T) {
	a := New(readyRunner(), nil)

	m, err := a.GetMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, m.Sampled)
	assert.Equal(t, 2.0, m.Usage["kvNamespaces"])
	assert.Equal(t, 2.0, m.Usage["r2Buckets"])
}
