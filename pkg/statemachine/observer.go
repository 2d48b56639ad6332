package statemachine

import (
	"context"
	"time"
)

// Outcome classifies how a fire call ended.
type Outcome string

const (
	OutcomeFired   Outcome = "fired"
	OutcomeFailed  Outcome = "failed"
	OutcomeErrored Outcome = "errored"
)

// Record describes a single fire call. To is empty when no destination was
// resolved. Err holds the failure reason or the raised error.
type Record struct {
	Machine    string
	InstanceID string
	Event      string
	From       string
	To         string
	Persist    bool
	Skipped    bool
	Outcome    Outcome
	Duration   time.Duration
	Err        error
}

// Observer is notified about every fire call of machines built from a
// definition. Implementations must be safe for concurrent use because a
// definition is shared between machines.
type Observer interface {
	EventFired(ctx context.Context, rec Record)
	EventFailed(ctx context.Context, rec Record)
	EventErrored(ctx context.Context, rec Record)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Fired   func(ctx context.Context, rec Record)
	Failed  func(ctx context.Context, rec Record)
	Errored func(ctx context.Context, rec Record)
}

func (o ObserverFuncs) EventFired(ctx context.Context, rec Record) {
	if o.Fired != nil {
		o.Fired(ctx, rec)
	}
}

func (o ObserverFuncs) EventFailed(ctx context.Context, rec Record) {
	if o.Failed != nil {
		o.Failed(ctx, rec)
	}
}

func (o ObserverFuncs) EventErrored(ctx context.Context, rec Record) {
	if o.Errored != nil {
		o.Errored(ctx, rec)
	}
}

func notifyObservers(ctx context.Context, observers []Observer, rec Record) {
	for _, o := range observers {
		switch rec.Outcome {
		case OutcomeFired:
			o.EventFired(ctx, rec)
		case OutcomeFailed:
			o.EventFailed(ctx, rec)
		default:
			o.EventErrored(ctx, rec)
		}
	}
}
