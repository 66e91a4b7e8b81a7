// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/gassure/escrowd/internal/escrow"
	"github.com/gassure/escrowd/internal/models"
	"github.com/gassure/escrowd/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
//
// The escrow singleton is serialized through txSlot, a capacity-1
// semaphore: concurrent WithTransaction callers queue behind the slot and
// fail with storage.ErrBusy only when their context expires while
// waiting.
type SQLiteStore struct {
	db     *sql.DB
	txSlot chan struct{}
}

// New creates a new SQLiteStore with the given database path. It creates
// the parent directories, runs migrations, and seeds the escrow and party
// rows (idempotently) so the store is ready for settlement operations.
func New(dbPath string, seed escrow.Seed) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes all SQL access, which keeps the
	// embedded driver free of SQLITE_BUSY under concurrent readers and
	// the notarization pipeline's patches.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Seed the escrow and party rows
	if err := seedFoundation(db, seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed escrow: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		txSlot: make(chan struct{}, 1),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTransaction acquires the escrow's transaction slot, then runs fn
// inside a SQL transaction. An error from fn rolls everything back.
func (s *SQLiteStore) WithTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	select {
	case s.txSlot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", storage.ErrBusy, ctx.Err())
	}
	defer func() { <-s.txSlot }()

	// The select picks randomly when both cases are ready, so an expired
	// caller can still win the slot. It must see Busy, not a failed
	// BeginTx.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrBusy, err)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&sqliteTx{tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ledger returns a consistent snapshot of the escrow and both parties.
// The escrow and party reads run inside one transaction so a concurrent
// writer cannot commit between them.
func (s *SQLiteStore) Ledger(ctx context.Context) (*models.Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	l, err := loadLedger(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}
	return l, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadLedger(ctx context.Context, q querier) (*models.Ledger, error) {
	l := &models.Ledger{}
	var enabled int
	err := q.QueryRowContext(ctx,
		"SELECT id, state, amount, notarization_enabled, buyer_id, seller_id FROM escrows WHERE id = ?",
		escrow.EscrowID,
	).Scan(&l.Escrow.ID, &l.Escrow.State, &l.Escrow.Amount, &enabled, &l.Escrow.BuyerID, &l.Escrow.SellerID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	l.Escrow.NotarizationEnabled = enabled != 0

	if err := loadParty(ctx, q, l.Escrow.BuyerID, &l.Buyer); err != nil {
		return nil, err
	}
	if err := loadParty(ctx, q, l.Escrow.SellerID, &l.Seller); err != nil {
		return nil, err
	}
	return l, nil
}

func loadParty(ctx context.Context, q querier, id string, p *models.Party) error {
	err := q.QueryRowContext(ctx,
		"SELECT id, role, name, balance FROM parties WHERE id = ?", id,
	).Scan(&p.ID, &p.Role, &p.Name, &p.Balance)
	if err == sql.ErrNoRows {
		return storage.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to get party %s: %w", id, err)
	}
	return nil
}

func saveLedger(ctx context.Context, q querier, l *models.Ledger) error {
	enabled := 0
	if l.Escrow.NotarizationEnabled {
		enabled = 1
	}
	if _, err := q.ExecContext(ctx,
		"UPDATE escrows SET state = ?, amount = ?, notarization_enabled = ? WHERE id = ?",
		l.Escrow.State, l.Escrow.Amount, enabled, l.Escrow.ID,
	); err != nil {
		return fmt.Errorf("failed to update escrow: %w", err)
	}
	for _, p := range []*models.Party{&l.Buyer, &l.Seller} {
		if _, err := q.ExecContext(ctx,
			"UPDATE parties SET balance = ? WHERE id = ?", p.Balance, p.ID,
		); err != nil {
			return fmt.Errorf("failed to update party %s: %w", p.ID, err)
		}
	}
	return nil
}

// sqliteTx implements storage.Tx over an open SQL transaction.
type sqliteTx struct {
	tx *sql.Tx
}

var _ storage.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) Ledger(ctx context.Context) (*models.Ledger, error) {
	return loadLedger(ctx, t.tx)
}

func (t *sqliteTx) SaveLedger(ctx context.Context, l *models.Ledger) error {
	return saveLedger(ctx, t.tx, l)
}

func (t *sqliteTx) AppendEvents(ctx context.Context, events []models.SettlementEvent) ([]models.SettlementEvent, error) {
	return appendEvents(ctx, t.tx, events)
}

func (t *sqliteTx) ClearEvents(ctx context.Context, escrowID string) error {
	return clearEvents(ctx, t.tx, escrowID)
}
