package pgstore_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/statestore"
	"github.com/dmitrymomot/statekit/pkg/statestore/pgstore"
	"github.com/dmitrymomot/statekit/pkg/statestore/storetest"
)

// fakeDB emulates the statemachine_states table for the four statements the
// store issues.
type fakeDB struct {
	mu      sync.Mutex
	rows    map[[2]string]string
	err     error
	queries []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[[2]string]string)}
}

func (db *fakeDB) record(sql string) {
	db.queries = append(db.queries, strings.Fields(sql)[0])
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.record(sql)

	if db.err != nil {
		return pgconn.CommandTag{}, db.err
	}

	key := [2]string{args[0].(string), args[1].(string)}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		db.rows[key] = args[2].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		delete(db.rows, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement: " + sql)
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.record(sql)

	if db.err != nil {
		return fakeRow{err: db.err}
	}
	state, ok := db.rows[[2]string{args[0].(string), args[1].(string)}]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: state}
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.record(sql)

	if db.err != nil {
		return nil, db.err
	}
	var ids []string
	for k := range db.rows {
		if k[0] == args[0].(string) {
			ids = append(ids, k[1])
		}
	}
	slices.Sort(ids)
	return &fakeRows{values: ids, pos: -1}, nil
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

type fakeRows struct {
	values []string
	pos    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.values)
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.values[r.pos]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	return []any{r.values[r.pos]}, nil
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()
	storetest.RunContract(t, pgstore.New(newFakeDB()))
}

func TestStore_Upsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newFakeDB()
	store := pgstore.New(db)
	key := statestore.Key{Machine: "order", ID: "1"}

	require.NoError(t, store.Save(ctx, key, "pending"))
	require.NoError(t, store.Save(ctx, key, "approved"))

	assert.Equal(t, []string{"INSERT", "INSERT"}, db.queries)
	assert.Len(t, db.rows, 1)
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("connection reset")
	db := newFakeDB()
	db.err = boom
	store := pgstore.New(db)
	key := statestore.Key{Machine: "order", ID: "1"}

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, statestore.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, key, "pending"), boom)
	assert.ErrorIs(t, store.Delete(ctx, key), boom)

	_, err = store.List(ctx, "order")
	assert.ErrorIs(t, err, boom)
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, pgstore.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pgstore.IsNotFoundError(errors.Join(errors.New("query"), pgx.ErrNoRows)))
	assert.False(t, pgstore.IsNotFoundError(nil))
	assert.False(t, pgstore.IsNotFoundError(errors.New("other")))
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := pgstore.Connect(context.Background(), pgstore.Config{
		ConnectionString: "postgres://user@host:notaport/db",
		RetryAttempts:    1,
	})
	assert.ErrorIs(t, err, pgstore.ErrFailedToParseDBConfig)
}
