// Package storage provides abstractions for the settlement ledger store
// and the append-only event log.
package storage

import (
	"context"
	"errors"

	"github.com/gassure/escrowd/internal/models"
)

// ErrNotInitialized is returned when the escrow record is missing, i.e.
// the seed never ran. Fatal to every operation.
var ErrNotInitialized = errors.New("escrow not initialized")

// ErrBusy is returned when a caller's context expires before it acquires
// the settlement transaction slot.
var ErrBusy = errors.New("settlement transaction busy")

// Store is the interface for settlement persistence. The escrow singleton
// is a serialization point: implementations must guarantee that only one
// transaction is in flight at a time, with concurrent callers queueing
// behind it.
//
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// WithTransaction executes fn against a transactional view. If fn
	// returns an error no writes take effect; otherwise all writes commit
	// atomically and become visible to concurrent observers at once.
	// Returns ErrBusy when ctx expires while waiting for the slot.
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Ledger returns a consistent snapshot of the escrow and both
	// parties. Returns ErrNotInitialized when the escrow row is missing.
	Ledger(ctx context.Context) (*models.Ledger, error)

	// ListEvents returns up to limit events for the escrow, newest first.
	ListEvents(ctx context.Context, escrowID string, limit int) ([]models.SettlementEvent, error)

	// PatchNotarization records a notarization outcome on an existing
	// event, touching only the notarization fields. Repeat patches are
	// last-write-wins: notarization is idempotent per event, so the most
	// recent outcome stands.
	PatchNotarization(ctx context.Context, eventID string, result models.Notarization) error

	// ClearEvents removes every event for the escrow.
	ClearEvents(ctx context.Context, escrowID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the transactional view handed to WithTransaction callbacks.
type Tx interface {
	// Ledger loads the escrow and both parties inside the transaction.
	Ledger(ctx context.Context) (*models.Ledger, error)

	// SaveLedger persists the mutated escrow and party values.
	SaveLedger(ctx context.Context, l *models.Ledger) error

	// AppendEvents appends events in order, assigning each an ID, a
	// monotonic sequence number, and a timestamp. Returns the stored
	// events with those fields populated.
	AppendEvents(ctx context.Context, events []models.SettlementEvent) ([]models.SettlementEvent, error)

	// ClearEvents removes every event for the escrow inside the
	// transaction.
	ClearEvents(ctx context.Context, escrowID string) error
}
