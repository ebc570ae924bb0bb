package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase() *BaseAdapter {
	return NewBaseAdapter("test", "Test", "1.0.0", Capabilities{LogStreaming: true})
}

func TestBaseAdapterIdentity(t *testing.T) {
	b := newTestBase()
	assert.Equal(t, "test", b.GetName())
	assert.Equal(t, "Test", b.GetDisplayName())
	assert.Equal(t, "1.0.0", b.GetVersion())
	assert.True(t, b.GetCapabilities().LogStreaming)
	assert.False(t, b.GetCapabilities().Database)
}

func TestSetConnectedEmitsOnChange(t *testing.T) {
	b := newTestBase()
	var events []Event
	b.SetEventCallback(func(e Event) { events = append(events, e) })

	b.SetConnected(true)
	b.SetConnected(true) // no flip, no event
	b.SetConnected(false)

	require.Len(t, events, 2)
	assert.Equal(t, EventConnectionChanged, events[0].Type)
	assert.Equal(t, true, events[0].Payload)
	assert.Equal(t, "test", events[0].Service)
	assert.Equal(t, false, events[1].Payload)

	status := b.GetStatus()
	assert.False(t, status.Connected)
	assert.False(t, status.LastUpdated.IsZero())
}

func TestSetStatusError(t *testing.T) {
	b := newTestBase()
	var events []Event
	b.SetEventCallback(func(e Event) { events = append(events, e) })

	b.SetStatusError(errors.New("gh: command not found"))
	assert.Equal(t, "gh: command not found", b.GetStatus().Error)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)

	b.SetStatusError(nil)
	assert.Empty(t, b.GetStatus().Error)
	assert.Len(t, events, 1, "clearing the error must not emit")
}

func TestEmitConnectSnapshot(t *testing.T) {
	b := newTestBase()
	var events []Event
	b.SetEventCallback(func(e Event) { events = append(events, e) })

	snapshot := &DashboardData{Service: "test", Timestamp: time.Now()}
	b.EmitConnectSnapshot(context.Background(), func(ctx context.Context, opts *DataOptions) (*DashboardData, error) {
		return snapshot, nil
	})

	require.Len(t, events, 1)
	assert.Equal(t, EventDashboardUpdated, events[0].Type)
	assert.Same(t, snapshot, events[0].Payload)

	b.EmitConnectSnapshot(context.Background(), func(ctx context.Context, opts *DataOptions) (*DashboardData, error) {
		return nil, errors.New("listing failed")
	})
	assert.Len(t, events, 1, "a failed fetch must not emit")
}

func TestDispatchActionUnknownType(t *testing.T) {
	b := newTestBase()

	result := b.DispatchAction(context.Background(), Action{Type: "does-not-exist"})

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ActionErrUnknown, result.Error.Code)
	assert.Contains(t, result.Error.Details, "does-not-exist")
}

func TestDispatchActionFailureWrapped(t *testing.T) {
	b := newTestBase()
	b.RegisterAction("deploy", func(ctx context.Context, a Action) (string, error) {
		return "", errors.New("deployment quota exceeded")
	})

	result := b.DispatchAction(context.Background(), Action{Type: "deploy"})

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ActionErrFailed, result.Error.Code)
	assert.Equal(t, "deployment quota exceeded", result.Error.Details)
}

func TestDispatchActionSuccess(t *testing.T) {
	b := newTestBase()
	b.RegisterAction("echo", func(ctx context.Context, a Action) (string, error) {
		return a.Params["msg"], nil
	})

	result := b.DispatchAction(context.Background(), Action{Type: "echo", Params: map[string]string{"msg": "hi"}})

	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Output)
	assert.Nil(t, result.Error)
}

func TestActionTypesSorted(t *testing.T) {
	b := newTestBase()
	noop := func(ctx context.Context, a Action) (string, error) { return "", nil }
	b.RegisterAction("zeta", noop)
	b.RegisterAction("alpha", noop)

	assert.Equal(t, []string{"alpha", "zeta"}, b.ActionTypes())
}

func TestRunChecksDerivation(t *testing.T) {
	b := newTestBase()
	pass := func(ctx context.Context) (CheckState, string) { return CheckPass, "ok" }
	fail := func(ctx context.Context) (CheckState, string) { return CheckFail, "broken" }

	cases := []struct {
		name   string
		checks []NamedCheck
		want   HealthState
	}{
		{"all pass", []NamedCheck{{"a", pass}, {"b", pass}}, HealthHealthy},
		{"some pass", []NamedCheck{{"a", pass}, {"b", fail}}, HealthDegraded},
		{"none pass", []NamedCheck{{"a", fail}, {"b", fail}}, HealthUnhealthy},
		{"no checks", nil, HealthUnhealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hs := b.RunChecks(context.Background(), tc.checks)
			assert.Equal(t, tc.want, hs.Status)
			assert.Len(t, hs.Checks, len(tc.checks))
			assert.WithinDuration(t, time.Now(), hs.Timestamp, time.Minute)
		})
	}
}

func TestDeriveHealthStateWarnIsNotPass(t *testing.T) {
	checks := []Check{
		{Name: "cli", Status: CheckPass},
		{Name: "auth", Status: CheckWarn},
	}
	assert.Equal(t, HealthDegraded, DeriveHealthState(checks))

	allWarn := []Check{{Name: "cli", Status: CheckWarn}}
	assert.Equal(t, HealthUnhealthy, DeriveHealthState(allWarn))
}
