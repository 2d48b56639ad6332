package observers

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

type door struct {
	locked bool
}

const (
	closedDoor = statemachine.StringState("closed")
	openDoor   = statemachine.StringState("open")

	openEvent  = statemachine.StringEvent("open")
	closeEvent = statemachine.StringEvent("close")
	kickEvent  = statemachine.StringEvent("kick")
)

func doorDefinition(t *testing.T, o statemachine.Observer) *statemachine.Definition[*door] {
	t.Helper()

	unlocked := statemachine.Predicate(func(_ context.Context, d *door, _ ...any) bool { return !d.locked })
	def, err := statemachine.New("door",
		statemachine.WithObserver[*door](o),
		statemachine.WithState[*door](closedDoor),
		statemachine.WithState[*door](openDoor),
		statemachine.WithEvent(openEvent,
			statemachine.WithTransition(statemachine.From(closedDoor), openDoor, statemachine.WithGuard(unlocked)),
		),
		statemachine.WithEvent(closeEvent,
			statemachine.WithTransition[*door](statemachine.From(openDoor), closedDoor),
		),
		statemachine.WithEvent(kickEvent,
			statemachine.WithTransition[*door](statemachine.From(closedDoor), openDoor),
			statemachine.OnBefore(func(context.Context, *door, ...any) error {
				return errors.New("ouch")
			}),
		),
	)
	require.NoError(t, err)
	return def
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	def := doorDefinition(t, m)

	machine := def.NewMachine(&door{})
	ok, err := machine.Fire(ctx, openEvent)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = machine.Fire(ctx, closeEvent)
	require.NoError(t, err)
	require.True(t, ok)

	locked := def.NewMachine(&door{locked: true})
	ok, err = locked.Fire(ctx, openEvent)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = locked.Fire(ctx, kickEvent)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("door", "open", "fired")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("door", "open", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("door", "kick", "errored")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("door", "closed", "open")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("door", "open", "closed")), 0)

	assert.Equal(t, 2, testutil.CollectAndCount(m.transitions))
	assert.Equal(t, 4, testutil.CollectAndCount(m.duration))
}

func TestMetrics_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.EventFired(context.Background(), statemachine.Record{
		Machine: "door", Event: "open", From: "closed", To: "open", Outcome: statemachine.OutcomeFired,
	})
	assert.InDelta(t, 1, testutil.ToFloat64(second.transitions.WithLabelValues("door", "closed", "open")), 0)
}

func TestMetrics_Namespace(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg, WithNamespace("billing"), WithBuckets([]float64{0.1, 1}))
	m.EventFailed(context.Background(), statemachine.Record{Machine: "invoice", Event: "pay", Outcome: statemachine.OutcomeFailed})

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "billing_statemachine_events_total")
	assert.Contains(t, names, "billing_statemachine_fire_duration_seconds")
}
