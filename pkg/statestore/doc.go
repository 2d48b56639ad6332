// Package statestore persists state machine states outside the host.
//
// A Store maps a Key (machine name plus instance id) to a state name. Bind
// turns a Store into the statemachine.Persister a machine reads its initial
// state from and commits transitions to:
//
//	store := memory.New()
//	key := statestore.Key{Machine: "order", ID: order.ID}
//	m := def.NewMachine(order, statemachine.WithPersister[*Order](statestore.Bind(store, key)))
//	ok, err := m.FireAndPersist(ctx, Approve)
//
// Backends live in sub-packages: memory, redisstore, pgstore and mongostore.
// The storetest package holds the behaviour every backend must satisfy.
package statestore
