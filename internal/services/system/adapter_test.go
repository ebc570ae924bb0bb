package system

import (
	"context"
	"testing"

	"fluorite-flake/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleNeedsNoCredentials(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx))
	ok, err := a.Authenticate(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, a.IsAuthenticated(ctx))

	require.NoError(t, a.Connect(ctx))
	assert.True(t, a.GetStatus().Connected)
	require.NoError(t, a.Disconnect(ctx))
}

func TestConnectEmitsDashboardSnapshot(t *testing.T) {
	a := New(nil)

	var events []services.Event
	a.SetEventCallback(func(e services.Event) { events = append(events, e) })
	require.NoError(t, a.Connect(context.Background()))

	var snapshots []*services.DashboardData
	for _, e := range events {
		if e.Type == services.EventDashboardUpdated {
			snapshots = append(snapshots, e.Payload.(*services.DashboardData))
		}
	}
	require.Len(t, snapshots, 1)
	assert.Equal(t, "system", snapshots[0].Service)
}

func TestGradeUsage(t *testing.T) {
	tests := []struct {
		percent float64
		want    services.CheckState
	}{
		{10, services.CheckPass},
		{79.9, services.CheckPass},
		{80, services.CheckWarn},
		{94.9, services.CheckWarn},
		{95, services.CheckFail},
		{100, services.CheckFail},
	}
	for _, tc := range tests {
		state, _ := gradeUsage(tc.percent, "cpu")
		assert.Equalf(t, tc.want, state, "%.1f%%", tc.percent)
	}
}

func TestGetMetricsIsMeasured(t *testing.T) {
	a := New(nil)

	m, err := a.GetMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, m.Sampled, "system metrics are measured, never estimated")
	assert.Contains(t, m.Usage, "memoryPercent")
}

func TestHealthCheckHasThreeChecks(t *testing.T) {
	a := New(nil)

	hs := a.HealthCheck(context.Background())
	require.Len(t, hs.Checks, 3)
	assert.Equal(t, "cpu", hs.Checks[0].Name)
	assert.Equal(t, "memory", hs.Checks[1].Name)
	assert.Equal(t, "disk", hs.Checks[2].Name)
	assert.NotZero(t, hs.Timestamp)
}

func TestNoActionsRegistered(t *testing.T) {
	a := New(nil)

	assert.Empty(t, a.ActionTypes())
	result := a.ExecuteAction(context.Background(), services.Action{Type: "reboot"})
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, services.ActionErrUnknown, result.Error.Code)
}

func TestGetLogsClosesAfterSnapshot(t *testing.T) {
	a := New(nil)

	ch, err := a.GetLogs(context.Background(), services.LogOptions{})
	require.NoError(t, err)

	var count int
	for range ch {
		count++
	}
	assert.LessOrEqual(t, count, 1)
}

func TestListResourcesWrongTypeIsEmpty(t *testing.T) {
	a := New(nil)

	resources, err := a.ListResources(context.Background(), "bucket")
	require.NoError(t, err)
	assert.Empty(t, resources)
}
