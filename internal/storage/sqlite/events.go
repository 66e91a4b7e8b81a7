package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gassure/escrowd/internal/models"
)

// defaultEventLimit bounds ListEvents when the caller passes no limit.
const defaultEventLimit = 100

func appendEvents(ctx context.Context, q querier, events []models.SettlementEvent) ([]models.SettlementEvent, error) {
	stored := make([]models.SettlementEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if ev.CreatedAt == 0 {
			ev.CreatedAt = time.Now().UnixMilli()
		}

		res, err := q.ExecContext(ctx, `
			INSERT INTO events (id, escrow_id, action, actor, amount, created_at,
				escrow_state, buyer_balance, seller_balance, held_amount, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.EscrowID, ev.Action, ev.Actor, ev.Amount, ev.CreatedAt,
			ev.Snapshot.EscrowState, ev.Snapshot.BuyerBalance, ev.Snapshot.SellerBalance,
			ev.Snapshot.Amount, ev.Snapshot.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert event: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read event sequence: %w", err)
		}
		ev.Seq = seq
		stored = append(stored, ev)
	}
	return stored, nil
}

// ListEvents returns up to limit events for the escrow, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, escrowID string, limit int) ([]models.SettlementEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, escrow_id, action, actor, amount, created_at,
			escrow_state, buyer_balance, seller_balance, held_amount, note,
			notary_ref, notary_anchor, notary_error, notary_patched
		FROM events WHERE escrow_id = ? ORDER BY seq DESC LIMIT ?`,
		escrowID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.SettlementEvent
	for rows.Next() {
		var (
			ev      models.SettlementEvent
			n       models.Notarization
			patched int
		)
		if err := rows.Scan(
			&ev.Seq, &ev.ID, &ev.EscrowID, &ev.Action, &ev.Actor, &ev.Amount, &ev.CreatedAt,
			&ev.Snapshot.EscrowState, &ev.Snapshot.BuyerBalance, &ev.Snapshot.SellerBalance,
			&ev.Snapshot.Amount, &ev.Snapshot.Note,
			&n.ExternalRef, &n.LedgerAnchor, &n.Error, &patched,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if patched != 0 {
			ev.Notarization = &n
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// PatchNotarization records the notarization outcome for an event. Only
// the notarization fields are touched; a repeat patch overwrites the
// previous outcome (last-write-wins).
func (s *SQLiteStore) PatchNotarization(ctx context.Context, eventID string, result models.Notarization) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET notary_ref = ?, notary_anchor = ?, notary_error = ?, notary_patched = 1
		WHERE id = ?`,
		result.ExternalRef, result.LedgerAnchor, result.Error, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to patch notarization: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check notarization patch: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// ClearEvents removes every event for the escrow.
func (s *SQLiteStore) ClearEvents(ctx context.Context, escrowID string) error {
	return clearEvents(ctx, s.db, escrowID)
}

func clearEvents(ctx context.Context, q querier, escrowID string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM events WHERE escrow_id = ?", escrowID); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	return nil
}
