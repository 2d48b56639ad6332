package logger

import (
	"context"
	"log/slog"
)

type instanceIDKey struct{}

// WithInstanceID stores a state machine instance id in ctx. Machines do this
// before running hooks so that anything logged from a hook can be correlated.
func WithInstanceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, instanceIDKey{}, id)
}

// InstanceIDFromContext returns the instance id stored by WithInstanceID.
func InstanceIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(instanceIDKey{}).(string)
	return id, ok && id != ""
}

// MachineContextExtractor injects the instance id stored in context.
func MachineContextExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := InstanceIDFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return InstanceID(id), true
}

// WithMachineContext adds the instance id of the firing machine to every
// record logged with a context passed through a hook.
func WithMachineContext() Option {
	return WithContextExtractors(MachineContextExtractor)
}
