package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/anvarov/drivebox/pkg/store/namespace/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore implements namespace.Store on PostgreSQL.
//
// This is the multi-node backend: uniqueness invariants are enforced by
// partial unique indexes, so concurrent writers racing on a sibling
// title are resolved by the database rather than application locking.
// Every mutating operation runs in a single transaction.
type PostgresStore struct {
	db *sql.DB
}

// PostgresStoreConfig contains configuration for creating a
// Postgres-backed namespace store.
type PostgresStoreConfig struct {
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns caps the connection pool size (default: 10).
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns caps idle pooled connections (default: 5).
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// uniqueViolation is the PostgreSQL error code raised when an insert or
// update hits a unique index.
const uniqueViolation = "23505"

// serializationFailure and deadlockDetected are the PostgreSQL error
// codes for transactions aborted to preserve isolation; a retry sees a
// fresh snapshot and usually succeeds.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// maxSerializableRetries bounds how often an aborted SERIALIZABLE
// transaction is retried before the error is surfaced.
const maxSerializableRetries = 3

// NewPostgresStore opens a Postgres-backed namespace store and applies
// any pending schema migrations.
func NewPostgresStore(ctx context.Context, config PostgresStoreConfig) (*PostgresStore, error) {
	db, err := sql.Open("pgx", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 10
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// runMigrations sets up goose with the embedded migrations and runs
// them against the provided database connection.
func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Healthcheck verifies the database connection is alive.
func (s *PostgresStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.PingContext(ctx); err != nil {
		return &namespace.StoreError{
			Code:    namespace.ErrStorageUnavailable,
			Message: "postgres is not reachable: " + err.Error(),
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on nil and rolling back
// otherwise.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.runTx(ctx, nil, fn)
}

// withSerializableTx runs fn in a SERIALIZABLE transaction, retrying a
// bounded number of times when postgres aborts the transaction to
// preserve serializability. Used where read-committed is not enough,
// such as the cycle check in MoveFolder: two concurrent opposing moves
// could each pass the ancestor walk and commit a cycle.
func (s *PostgresStore) withSerializableTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var err error
	for attempt := 0; attempt < maxSerializableRetries; attempt++ {
		err = s.runTx(ctx, opts, fn)
		if !isRetryableTxError(err) {
			return err
		}
	}
	return err
}

func (s *PostgresStore) runTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique index violation.
//
// Pre-insert probes give friendly conflict errors in the common case;
// this catches the concurrent writer that slips between probe and
// insert.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isRetryableTxError reports whether err is a transient isolation
// abort worth retrying on a fresh snapshot.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
}

// conflictOr translates a unique violation into a domain conflict and
// returns any other error unchanged.
func conflictOr(err error, message string) error {
	if isUniqueViolation(err) {
		return &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: message,
		}
	}
	return err
}
