package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

func TestObservers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var records []statemachine.Record
	collect := func(_ context.Context, rec statemachine.Record) { records = append(records, rec) }

	errBoom := errors.New("boom")
	def := orderDefinition(t,
		statemachine.WithLogger[*order](slogt.New(t)),
		statemachine.WithObserver[*order](statemachine.ObserverFuncs{
			Fired:   collect,
			Failed:  collect,
			Errored: collect,
		}),
		statemachine.WithEvent(Reopen,
			statemachine.WithTransition[*order](statemachine.From(Rejected), Pending),
			statemachine.OnBefore(func(context.Context, *order, ...any) error { return errBoom }),
		),
	)

	o := &order{}
	m := def.NewMachine(o, statemachine.WithInstanceID[*order]("order-1"))

	_, err := m.Fire(ctx, Approve)
	require.NoError(t, err)
	o.ready = true
	_, err = m.FireAndPersist(ctx, Approve)
	require.NoError(t, err)
	_, err = m.Fire(ctx, Reject)
	require.NoError(t, err)
	_, err = m.Fire(ctx, Reopen)
	require.Error(t, err)

	require.Len(t, records, 4)

	assert.Equal(t, statemachine.OutcomeFailed, records[0].Outcome)
	assert.True(t, statemachine.IsTransitionRejectedError(records[0].Err))
	assert.Equal(t, "pending", records[0].From)
	assert.Empty(t, records[0].To)

	assert.Equal(t, statemachine.OutcomeFired, records[1].Outcome)
	assert.Equal(t, "order", records[1].Machine)
	assert.Equal(t, "order-1", records[1].InstanceID)
	assert.Equal(t, "approve", records[1].Event)
	assert.Equal(t, "approved", records[1].To)
	assert.True(t, records[1].Persist)
	assert.NoError(t, records[1].Err)

	assert.Equal(t, statemachine.OutcomeFired, records[2].Outcome)
	assert.False(t, records[2].Persist)

	assert.Equal(t, statemachine.OutcomeErrored, records[3].Outcome)
	assert.ErrorIs(t, records[3].Err, errBoom)
}

func TestTracing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	def := orderDefinition(t, statemachine.WithTracer[*order](tp.Tracer("test")))
	m := def.NewMachine(&order{ready: true}, statemachine.WithInstanceID[*order]("order-7"))

	ok, err := m.Fire(ctx, Approve)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = m.Fire(ctx, Approve)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	first := spans[0]
	assert.Equal(t, "statemachine.fire", first.Name)
	assert.Equal(t, codes.Ok, first.Status.Code)

	attrs := make(map[string]any)
	for _, kv := range first.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "order", attrs["machine"])
	assert.Equal(t, "approve", attrs["event"])
	assert.Equal(t, "order-7", attrs["instance_id"])
	assert.Equal(t, "pending", attrs["from"])
	assert.Equal(t, "approved", attrs["to"])
	assert.Equal(t, "fired", attrs["outcome"])
	assert.Equal(t, false, attrs["persist"])

	second := spans[1]
	attrs = make(map[string]any)
	for _, kv := range second.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "failed", attrs["outcome"])
}
