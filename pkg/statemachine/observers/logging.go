package observers

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// Logging writes one structured record per fire call: info when the event
// fired, warn when it failed, error when it raised.
type Logging struct {
	log *slog.Logger
}

var _ statemachine.Observer = (*Logging)(nil)

func NewLogging(log *slog.Logger) *Logging {
	if log == nil {
		log = slog.Default()
	}
	return &Logging{log: log}
}

func (l *Logging) attrs(rec statemachine.Record) []slog.Attr {
	return []slog.Attr{
		logger.Machine(rec.Machine),
		logger.InstanceID(rec.InstanceID),
		logger.Event(rec.Event),
		logger.FromState(rec.From),
		logger.ToState(rec.To),
		logger.Outcome(string(rec.Outcome)),
		logger.Duration(rec.Duration),
		slog.Bool("persist", rec.Persist),
	}
}

func (l *Logging) EventFired(ctx context.Context, rec statemachine.Record) {
	attrs := l.attrs(rec)
	if rec.Skipped {
		attrs = append(attrs, slog.Bool("skipped", true))
	}
	l.log.LogAttrs(ctx, slog.LevelInfo, "event fired", attrs...)
}

func (l *Logging) EventFailed(ctx context.Context, rec statemachine.Record) {
	l.log.LogAttrs(ctx, slog.LevelWarn, "event failed", append(l.attrs(rec), logger.Error(rec.Err))...)
}

func (l *Logging) EventErrored(ctx context.Context, rec statemachine.Record) {
	l.log.LogAttrs(ctx, slog.LevelError, "event errored", append(l.attrs(rec), logger.Error(rec.Err))...)
}
