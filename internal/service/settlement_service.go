// Package service implements the Settlement Facade: the single call
// surface over the state machine, the ledger store, and the notarization
// pipeline.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gassure/escrowd/internal/escrow"
	"github.com/gassure/escrowd/internal/metrics"
	"github.com/gassure/escrowd/internal/models"
	"github.com/gassure/escrowd/internal/notary"
	"github.com/gassure/escrowd/internal/storage"
)

// Dispatcher hands committed events to the notarization pipeline without
// blocking the caller.
type Dispatcher interface {
	Dispatch(jobs []notary.Job)
}

// SettlementService sequences each operation: one store transaction
// applying the transition and appending its events, an immediate return
// of the updated snapshot, then a post-commit hand-off of the captured
// events to the notarization pipeline.
type SettlementService struct {
	store      storage.Store
	dispatcher Dispatcher
	seed       escrow.Seed
}

// NewSettlementService creates a SettlementService with the given storage
// backend and notarization dispatcher.
func NewSettlementService(store storage.Store, dispatcher Dispatcher, seed escrow.Seed) *SettlementService {
	return &SettlementService{store: store, dispatcher: dispatcher, seed: seed}
}

// GetState returns the current Escrow+Party snapshot.
func (s *SettlementService) GetState(ctx context.Context) (*models.SystemState, error) {
	l, err := s.store.Ledger(ctx)
	if err != nil {
		slog.Error("GetState failed", "error", err)
		return nil, err
	}
	return models.NewSystemState(l), nil
}

// FundEscrow locks amount of the buyer's balance into the escrow.
func (s *SettlementService) FundEscrow(ctx context.Context, amount int64) (*models.SystemState, error) {
	return s.apply(ctx, "fund_escrow", func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error) {
		return escrow.Fund(l, amount)
	})
}

// Confirm records actor's consent; the second confirmation releases the
// funds to the seller.
func (s *SettlementService) Confirm(ctx context.Context, actor models.Actor) (*models.SystemState, error) {
	return s.apply(ctx, "confirm", func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error) {
		return escrow.Confirm(l, actor)
	})
}

// ToggleNotarization enables or disables notarization while the escrow is
// idle.
func (s *SettlementService) ToggleNotarization(ctx context.Context, enabled bool) (*models.SystemState, error) {
	return s.apply(ctx, "toggle_notarization", func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error) {
		return nil, escrow.ToggleNotarization(l, enabled)
	})
}

// FundAccount credits a party balance directly.
func (s *SettlementService) FundAccount(ctx context.Context, target models.Actor, amount int64) (*models.SystemState, error) {
	return s.apply(ctx, "fund_account", func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error) {
		return escrow.FundAccount(l, target, amount)
	})
}

// Reset restores the seed state and restarts the audit trail with a
// single RESET event.
func (s *SettlementService) Reset(ctx context.Context) (*models.SystemState, error) {
	return s.apply(ctx, "reset", func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error) {
		if err := tx.ClearEvents(ctx, l.Escrow.ID); err != nil {
			return nil, err
		}
		return escrow.Reset(l, s.seed)
	})
}

// ListEvents returns the audit trail, newest first.
func (s *SettlementService) ListEvents(ctx context.Context, limit int) ([]models.SettlementEvent, error) {
	events, err := s.store.ListEvents(ctx, escrow.EscrowID, limit)
	if err != nil {
		slog.Error("ListEvents failed", "error", err)
		return nil, err
	}
	return events, nil
}

// ClearEvents removes the entire audit trail.
func (s *SettlementService) ClearEvents(ctx context.Context) error {
	if err := s.store.ClearEvents(ctx, escrow.EscrowID); err != nil {
		slog.Error("ClearEvents failed", "error", err)
		return err
	}
	return nil
}

// apply runs one settlement transaction: load the ledger, run the
// transition, persist the result, append the events, commit. The snapshot
// is returned to the caller before the captured events are handed to the
// notarization pipeline, which runs out of the caller's critical path.
func (s *SettlementService) apply(
	ctx context.Context,
	op string,
	transition func(tx storage.Tx, l *models.Ledger) ([]models.SettlementEvent, error),
) (*models.SystemState, error) {
	var (
		state    *models.SystemState
		appended []models.SettlementEvent
		jobs     []notary.Job
	)

	err := s.store.WithTransaction(ctx, func(tx storage.Tx) error {
		l, err := tx.Ledger(ctx)
		if err != nil {
			return err
		}

		events, err := transition(tx, l)
		if err != nil {
			return err
		}

		if err := tx.SaveLedger(ctx, l); err != nil {
			return err
		}
		if appended, err = tx.AppendEvents(ctx, events); err != nil {
			return err
		}

		state = models.NewSystemState(l)
		// Notarization eligibility is fixed at commit time by the
		// post-transition toggle value.
		if l.Escrow.NotarizationEnabled {
			jobs = buildJobs(l, appended)
		}
		return nil
	})

	m := metrics.Settlement()
	if err != nil {
		m.Transitions.WithLabelValues(op, "rejected").Inc()
		slog.Error("settlement transition rejected", "operation", op, "error", err)
		return nil, err
	}
	m.Transitions.WithLabelValues(op, "committed").Inc()
	slog.Info("settlement transition committed",
		"operation", op, "state", state.Escrow.State, "events", len(appended))

	if len(jobs) > 0 {
		s.dispatcher.Dispatch(jobs)
	}
	return state, nil
}

func buildJobs(l *models.Ledger, events []models.SettlementEvent) []notary.Job {
	jobs := make([]notary.Job, len(events))
	for i, ev := range events {
		jobs[i] = notary.Job{
			EventID: ev.ID,
			Memo: notary.Memo{
				EscrowID:  ev.EscrowID,
				Action:    string(ev.Action),
				Amount:    ev.Amount,
				BuyerID:   l.Escrow.BuyerID,
				SellerID:  l.Escrow.SellerID,
				Timestamp: time.UnixMilli(ev.CreatedAt).UTC().Format(time.RFC3339Nano),
			},
		}
	}
	return jobs
}
