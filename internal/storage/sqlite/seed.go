package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gassure/escrowd/internal/escrow"
	"github.com/gassure/escrowd/internal/models"
)

// Display names for the seeded demo parties.
const (
	buyerName  = "Buyer Demo"
	sellerName = "Seller Demo"
)

// seedFoundation ensures the two party rows and the singleton escrow row
// exist. Safe to run on every startup: existing parties keep their
// balances, and an existing escrow only has notarization re-enabled.
func seedFoundation(db *sql.DB, seed escrow.Seed) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	buyerID, err := ensureParty(tx, models.RoleBuyer, buyerName, seed.BuyerBalance)
	if err != nil {
		return err
	}
	sellerID, err := ensureParty(tx, models.RoleSeller, sellerName, seed.SellerBalance)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO escrows (id, state, amount, notarization_enabled, buyer_id, seller_id)
		VALUES (?, ?, 0, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET notarization_enabled = 1`,
		escrow.EscrowID, models.StateCreated, buyerID, sellerID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert escrow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

// ensureParty returns the existing party id for role, creating the row
// with the seed balance when absent.
func ensureParty(tx *sql.Tx, role models.Role, name string, balance int64) (string, error) {
	var id string
	err := tx.QueryRow("SELECT id FROM parties WHERE role = ?", role).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up %s party: %w", role, err)
	}

	id = uuid.New().String()
	if _, err := tx.Exec(
		"INSERT INTO parties (id, role, name, balance) VALUES (?, ?, ?, ?)",
		id, role, name, balance,
	); err != nil {
		return "", fmt.Errorf("failed to insert %s party: %w", role, err)
	}
	return id, nil
}
