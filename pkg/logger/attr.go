package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Machine records the state machine name under the key "machine".
func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// FromState records the source state under the key "from".
// If name is empty, it returns an empty Attr.
func FromState(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("from", name)
}

// ToState records the destination state under the key "to".
// If name is empty, it returns an empty Attr.
func ToState(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("to", name)
}

// InstanceID records the machine instance identifier under the key "instance_id".
// If id is empty, it returns an empty Attr.
func InstanceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("instance_id", id)
}

// Outcome records how an event ended under the key "outcome".
func Outcome(outcome string) slog.Attr {
	return slog.String("outcome", outcome)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Store records the state store backend under the key "store".
func Store(name string) slog.Attr {
	return slog.String("store", name)
}

// StoreKey records a persisted state key under the key "store_key".
func StoreKey(key string) slog.Attr {
	return slog.String("store_key", key)
}
