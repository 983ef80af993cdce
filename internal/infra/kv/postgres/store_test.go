package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"mskboard/internal/kv/core"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock: %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS state")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	store, err := NewWithPool(context.Background(), mock)
	if err != nil {
		t.Fatalf("NewWithPool: %v", err)
	}
	return store, mock
}

func TestPostgresStoreSetGetRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state (bucket, payload)")).
		WithArgs("msk-suggestion-store", []byte(`{"v":1}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("msk-suggestion-store").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{"v":1}`)))
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs("msk-suggestion-store").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectClose()

	if store.Driver() != core.DriverPostgres {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	if err := store.Set(ctx, "msk-suggestion-store", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "msk-suggestion-store")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"v":1}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if err := store.Remove(ctx, "msk-suggestion-store"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetMissing(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("msk-user").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Get(context.Background(), "msk-user"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreWrapsErrors(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state (bucket, payload)")).
		WithArgs("msk-user", []byte{}).
		WillReturnError(boom)
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("msk-user").
		WillReturnError(boom)

	if err := store.Set(context.Background(), "msk-user", nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped set error, got %v", err)
	}
	if _, err := store.Get(context.Background(), "msk-user"); !errors.Is(err, boom) || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected wrapped get error, got %v", err)
	}
}

func TestNewWithPoolRejectsNil(t *testing.T) {
	t.Parallel()
	if _, err := NewWithPool(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestNewWithPoolTableError(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock: %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS state")).
		WillReturnError(errors.New("permission denied"))
	if _, err := NewWithPool(context.Background(), mock); err == nil {
		t.Fatalf("expected ensure table error")
	}
}

func TestOpenRejectsBadDSN(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), "://not a dsn"); err == nil {
		t.Fatalf("expected parse error")
	}
}
