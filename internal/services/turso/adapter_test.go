package turso

import (
	"context"
	"errors"
	"testing"

	"fluorite-flake/internal/services"
	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listOutput = `NAME      GROUP    URL                                   LOCATIONS
appdb     default  libsql://appdb-octocat.turso.io       fra
staging   default  libsql://staging-octocat.turso.io     ams`

func readyRunner() *vendorcli.FakeRunner {
	r := vendorcli.NewFakeRunner()
	r.Install("turso")
	r.Script("turso auth whoami", "octocat")
	r.Script("turso db list", listOutput)
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
	r.Install("turso")
	r.ScriptError("turso auth whoami", errors.New("not logged in"))
	a := New(r, nil)

	err := a.Connect(context.Background())
	require.ErrorIs(t, err, services.ErrNotAuthenticated)
	assert.False(t, a.GetStatus().Connected)
}

func TestParseDatabaseTable(t *testing.T) {
	databases := parseDatabaseTable(listOutput)
	require.Len(t, databases, 2)
	assert.Equal(t, "appdb", databases[0].name)
	assert.Equal(t, "default", databases[0].group)
	assert.Equal(t, "libsql://appdb-octocat.turso.io", databases[0].url)
	assert.Equal(t, "fra", databases[0].location)

	assert.Empty(t, parseDatabaseTable(""))
	assert.Empty(t, parseDatabaseTable("NAME GROUP URL"))
}

func TestListResources(t *testing.T) {
	a := New(readyRunner(), nil)

	resources, err := a.ListResources(context.Background(), "database")
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "appdb", resources[0].ID)
	assert.Equal(t, "database", resources[0].Type)
}

func TestHealthCheckFailsWithoutLogin(t *testing.T) {
	r := readyRunner()
	r.ScriptError("turso auth whoami", errors.New("not logged in"))
	a := New(r, nil)

	hs := a.HealthCheck(context.Background())
	assert.Equal(t, services.HealthDegraded, hs.Status)
}

func TestGroupScopedListing(t *testing.T) {
	r := vendorcli.NewFakeRunner()
	r.Install("turso")
	r.Script("turso db list --group prod", listOutput)
	a := New(r, map[string]string{"group": "prod"})

	_, err := a.ListResources(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, r.CallCount("turso db list --group prod"))
}

func TestCreateDatabaseAction(t *testing.T) {
	r := readyRunner()
	r.Script("turso db create newdb", "Created database newdb")
	a := New(r, nil)

	result := a.ExecuteAction(context.Background(), services.Action{
		Type:   "create-database",
		Params: map[string]string{"name": "newdb"},
	})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "newdb")

	missing := a.ExecuteAction(context.Background(), services.Action{Type: "create-database"})
	assert.False(t, missing.Success)
	assert.Equal(t, services.ActionErrFailed, missing.Error.Code)
}

func TestGetLogsBacklogCloses(t *testing.T) {
	a := New(readyRunner(), nil)

	ch, err := a.GetLogs(context.Background(), services.LogOptions{})
	require.NoError(t, err)

	var count int
	for range ch {
		count++
	}
	assert.Equal(t, 2, count)
}
