package statestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

var (
	ErrNotFound   = errors.New("statestore: state not found")
	ErrInvalidKey = errors.New("statestore: invalid key")
)

// Key addresses the persisted state of one machine instance.
type Key struct {
	Machine string
	ID      string
}

// String returns "machine/id".
func (k Key) String() string {
	return k.Machine + "/" + k.ID
}

// Validate reports ErrInvalidKey when either part is empty, or when the
// machine name contains '/' or ':'. Backends use those as separators between
// machine and id, so the id may contain them.
func (k Key) Validate() error {
	switch {
	case k.Machine == "":
		return fmt.Errorf("%w: empty machine name", ErrInvalidKey)
	case k.ID == "":
		return fmt.Errorf("%w: empty instance id", ErrInvalidKey)
	case strings.ContainsAny(k.Machine, "/:"):
		return fmt.Errorf("%w: machine name %q contains a separator", ErrInvalidKey, k.Machine)
	}
	return nil
}

// Store persists state names by key.
type Store interface {
	// Load returns ErrNotFound when nothing is stored for key.
	Load(ctx context.Context, key Key) (string, error)
	Save(ctx context.Context, key Key, state string) error
	Delete(ctx context.Context, key Key) error
	// List returns the instance ids stored for machine.
	List(ctx context.Context, machine string) ([]string, error)
}

// SaveCheck decides whether a write may go through. Returning false vetoes it
// without an error, which the machine reports as a persistence failure.
type SaveCheck func(ctx context.Context, key Key, from, to string) (bool, error)

type bindOptions struct {
	check  SaveCheck
	logger *slog.Logger
}

// BindOption configures a Binding.
type BindOption func(*bindOptions)

// WithSaveCheck installs a veto on writes.
func WithSaveCheck(fn SaveCheck) BindOption {
	return func(o *bindOptions) {
		o.check = fn
	}
}

// WithLogger sets the logger used for store operations.
func WithLogger(l *slog.Logger) BindOption {
	return func(o *bindOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Binding adapts a Store to statemachine.Persister for a single key.
type Binding struct {
	store  Store
	key    Key
	check  SaveCheck
	logger *slog.Logger
	last   string
}

var _ statemachine.Persister = (*Binding)(nil)

// Bind returns the persistence collaborator for key.
func Bind(store Store, key Key, opts ...BindOption) *Binding {
	o := bindOptions{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binding{
		store:  store,
		key:    key,
		check:  o.check,
		logger: o.logger,
	}
}

// Key returns the bound key.
func (b *Binding) Key() Key {
	return b.key
}

// ReadState returns the stored state name, or "" when nothing is stored.
func (b *Binding) ReadState(ctx context.Context) (string, error) {
	if err := b.key.Validate(); err != nil {
		return "", err
	}

	state, err := b.store.Load(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to load state",
			logger.StoreKey(b.key.String()),
			logger.Error(err),
		)
		return "", err
	}
	b.last = state
	return state, nil
}

// WriteState saves state. It reports false without an error when the save
// check vetoes the write.
func (b *Binding) WriteState(ctx context.Context, state string) (bool, error) {
	if err := b.key.Validate(); err != nil {
		return false, err
	}

	if b.check != nil {
		ok, err := b.check(ctx, b.key, b.last, state)
		if err != nil {
			return false, err
		}
		if !ok {
			b.logger.WarnContext(ctx, "state write vetoed",
				logger.StoreKey(b.key.String()),
				logger.ToState(state),
			)
			return false, nil
		}
	}

	if err := b.store.Save(ctx, b.key, state); err != nil {
		b.logger.ErrorContext(ctx, "failed to save state",
			logger.StoreKey(b.key.String()),
			logger.Error(err),
		)
		return false, err
	}
	b.last = state
	return true, nil
}
