// Package stores opens the statestore backend selected by configuration.
package stores

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/statekit/internal/config"
	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statestore"
	"github.com/dmitrymomot/statekit/pkg/statestore/memory"
	"github.com/dmitrymomot/statekit/pkg/statestore/mongostore"
	"github.com/dmitrymomot/statekit/pkg/statestore/pgstore"
	"github.com/dmitrymomot/statekit/pkg/statestore/redisstore"
)

// Backend is an opened store together with its lifecycle hooks.
type Backend struct {
	Store       statestore.Store
	Healthcheck func(context.Context) error
	Close       func(context.Context) error
}

func nop(context.Context) error { return nil }

// Open connects to the backend named by cfg.Store. Backend settings are read
// from the environment with config.Load.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Backend, error) {
	log = log.With(logger.Component("stores"), logger.Store(cfg.Store))

	switch cfg.Store {
	case config.StoreMemory:
		log.DebugContext(ctx, "using in-memory state store; states are lost on exit")
		return &Backend{Store: memory.New(), Healthcheck: nop, Close: nop}, nil

	case config.StoreRedis:
		var rc redisstore.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redisstore.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		log.DebugContext(ctx, "connected")
		return &Backend{
			Store:       redisstore.NewWithConfig(client, rc),
			Healthcheck: redisstore.Healthcheck(client),
			Close:       func(context.Context) error { return client.Close() },
		}, nil

	case config.StorePostgres:
		var pc pgstore.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool, pc, log); err != nil {
			pool.Close()
			return nil, err
		}
		log.DebugContext(ctx, "connected")
		return &Backend{
			Store:       pgstore.New(pool),
			Healthcheck: pgstore.Healthcheck(pool),
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMongo:
		var mc mongostore.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		store, client, err := mongostore.NewFromConfig(ctx, mc)
		if err != nil {
			return nil, err
		}
		log.DebugContext(ctx, "connected")
		return &Backend{
			Store:       store,
			Healthcheck: mongostore.Healthcheck(client),
			Close:       client.Disconnect,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.Store)
}
