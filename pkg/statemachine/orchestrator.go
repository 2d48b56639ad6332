package statemachine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

const tracerName = "statemachine"

func (m *Machine[T]) fire(ctx context.Context, e Event, persist bool, args []any) (bool, error) {
	if e == nil {
		return false, ErrInvalidEvent
	}
	ev, err := m.def.LookupEvent(e.Name())
	if err != nil {
		return false, err
	}

	start := time.Now()
	ctx = logger.WithInstanceID(ctx, m.id)
	ctx, span := m.startSpan(ctx, ev, persist)
	defer span.End()

	rec := Record{
		Machine:    m.def.name,
		InstanceID: m.id,
		Event:      ev.Name(),
		Persist:    persist,
	}

	fired, runErr := m.orchestrate(ctx, ev, persist, args, &rec)
	rec.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("from", rec.From),
		attribute.String("to", rec.To),
		attribute.Bool("skipped", rec.Skipped),
	)

	log := m.def.logger.With(
		logger.Machine(rec.Machine),
		logger.Event(rec.Event),
		logger.FromState(rec.From),
		logger.ToState(rec.To),
	)

	switch {
	case runErr != nil:
		rec.Outcome = OutcomeErrored
		rec.Err = runErr
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		log.ErrorContext(ctx, "event raised an error", logger.Error(runErr))
	case fired:
		rec.Outcome = OutcomeFired
		span.SetStatus(codes.Ok, "")
		log.DebugContext(ctx, "event fired", logger.Duration(rec.Duration))
	default:
		rec.Outcome = OutcomeFailed
		log.WarnContext(ctx, "event failed", logger.Error(rec.Err))
	}
	span.SetAttributes(attribute.String("outcome", string(rec.Outcome)))
	notifyObservers(ctx, m.def.observers, rec)

	if runErr != nil {
		return false, ev.ExecuteErrorCallback(ctx, m.host, runErr)
	}
	return fired, nil
}

//nolint:spancheck // ended by fire
func (m *Machine[T]) startSpan(ctx context.Context, ev *EventDef[T], persist bool) (context.Context, trace.Span) {
	tracer := m.def.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "statemachine.fire", trace.WithAttributes(
		attribute.String("machine", m.def.name),
		attribute.String("event", ev.Name()),
		attribute.String("instance_id", m.id),
		attribute.Bool("persist", persist),
	))
}

// orchestrate sequences one event. It returns false without an error when no
// transition matched or the write did not commit; rec.Err then carries the
// reason. Panics are converted into errors.
func (m *Machine[T]) orchestrate(ctx context.Context, ev *EventDef[T], persist bool, args []any, rec *Record) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fired = false
			err = &TransitionError{Event: rec.Event, From: rec.From, To: rec.To, Err: fmt.Errorf("%w: %v", ErrPanicked, r)}
		}
	}()

	raise := func(err error) (bool, error) {
		return false, &TransitionError{Event: rec.Event, From: rec.From, To: rec.To, Err: err}
	}

	current, err := m.Current(ctx)
	if err != nil {
		return raise(err)
	}
	rec.From = current.Name()
	old, err := m.def.LookupState(current.Name())
	if err != nil {
		return raise(err)
	}

	prospective, err := ev.Resolve(ctx, current, m.host, args...)
	if err != nil {
		return raise(err)
	}
	skip := prospective != nil && old.SameStateSkip() && old.Name() == prospective.Name()
	rec.Skipped = skip

	if !skip {
		if err := old.CallAction(ctx, Exit, m.host, args...); err != nil {
			return raise(err)
		}
	}
	if err := ev.CallAction(ctx, Before, m.host, args...); err != nil {
		return raise(err)
	}

	// Guards run again here and may answer differently than above.
	next, err := ev.Resolve(ctx, current, m.host, args...)
	if err != nil {
		return raise(err)
	}
	if next == nil {
		rec.Err = m.failureReason(ev, current)
		if m.failed != nil {
			m.failed.EventFailed(ctx, ev.event, current, rec.Err)
		}
		return false, nil
	}
	rec.To = next.Name()

	nw, err := m.def.LookupState(next.Name())
	if err != nil {
		return raise(err)
	}
	if !skip {
		if err := old.CallAction(ctx, BeforeExit, m.host, args...); err != nil {
			return raise(err)
		}
		if err := nw.CallAction(ctx, BeforeEnter, m.host, args...); err != nil {
			return raise(err)
		}
	}
	if err := nw.CallAction(ctx, Enter, m.host, args...); err != nil {
		return raise(err)
	}

	committed := true
	if persist {
		committed, err = m.writer.WriteState(ctx, nw.Name())
		if err != nil {
			return raise(fmt.Errorf("write state: %w", err))
		}
		if committed {
			if err := m.setCurrent(ctx, nw.state); err != nil {
				return raise(err)
			}
			if err := ev.ExecuteSuccessCallback(ctx, m.host, args...); err != nil {
				return raise(err)
			}
		}
	} else if err := m.setCurrent(ctx, nw.state); err != nil {
		return raise(err)
	}

	if !committed {
		rec.Err = ErrPersistenceFailed
		if m.failed != nil {
			m.failed.EventFailed(ctx, ev.event, current, ErrPersistenceFailed)
		}
		return false, nil
	}

	if !skip {
		if err := old.CallAction(ctx, AfterExit, m.host, args...); err != nil {
			return raise(err)
		}
		if err := nw.CallAction(ctx, AfterEnter, m.host, args...); err != nil {
			return raise(err)
		}
	}
	if err := ev.CallAction(ctx, After, m.host, args...); err != nil {
		return raise(err)
	}
	if m.fired != nil {
		m.fired.EventFired(ctx, ev.event, current, nw.state)
	}
	return true, nil
}

func (m *Machine[T]) failureReason(ev *EventDef[T], current State) error {
	if ev.TransitionsFromState(current) {
		return NewErrTransitionRejected(current.Name(), ev.Name())
	}
	return NewErrNoTransitionAvailable(current.Name(), ev.Name())
}
