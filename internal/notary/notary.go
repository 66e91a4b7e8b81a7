// Package notary submits committed settlement events to an external
// append-only notarization ledger, best-effort. The ledger is treated as
// unreliable and possibly slow; settlement correctness never depends on
// it.
package notary

import (
	"context"
	"errors"
)

// Memo is the payload anchored on the external ledger for one event.
type Memo struct {
	EscrowID  string `json:"escrowId"`
	Action    string `json:"action"`
	Amount    int64  `json:"amount"`
	BuyerID   string `json:"buyerId"`
	SellerID  string `json:"sellerId"`
	Timestamp string `json:"timestamp"`
}

// Receipt is the ledger's acknowledgment of an anchored memo.
type Receipt struct {
	ExternalRef  string `json:"externalRef"`
	LedgerAnchor string `json:"ledgerAnchor"`
}

// Service is the external notarization ledger.
type Service interface {
	Submit(ctx context.Context, memo Memo) (Receipt, error)
}

// ErrNotConfigured is returned by Disabled for every submission.
var ErrNotConfigured = errors.New("notarization ledger endpoint not configured")

// Disabled is the Service used when no ledger endpoint is configured.
// Every submission fails, the failure is recorded on the event, and
// settlement proceeds regardless.
type Disabled struct{}

var _ Service = Disabled{}

// Submit always fails with ErrNotConfigured.
func (Disabled) Submit(context.Context, Memo) (Receipt, error) {
	return Receipt{}, ErrNotConfigured
}
