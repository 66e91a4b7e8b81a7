// Package escrow implements the settlement state machine: the sole
// authority for legal transitions over the escrow and the two party
// balances.
//
// Transitions are pure functions over an in-memory models.Ledger. The
// settlement facade loads the ledger inside one storage transaction,
// applies a transition, and persists the mutated ledger together with the
// returned events, so a rejected transition never leaves partial effects.
package escrow

import (
	"fmt"
	"math"

	"github.com/gassure/escrowd/internal/models"
)

// EscrowID is the fixed identifier of the singleton escrow record.
const EscrowID = "ESCROW_SINGLE"

// Seed holds the initial party balances restored by Reset.
type Seed struct {
	BuyerBalance  int64
	SellerBalance int64
}

// DefaultSeed matches the demo deployment: a funded buyer and an empty
// seller.
var DefaultSeed = Seed{BuyerBalance: 200_000, SellerBalance: 0}

// Fund locks amount of the buyer's balance into the escrow.
// Legal only in CREATED with a positive amount covered by the buyer.
func Fund(l *models.Ledger, amount int64) ([]models.SettlementEvent, error) {
	if l.Escrow.State != models.StateCreated {
		return nil, newError(CodeInvalidState,
			fmt.Sprintf("escrow must be in CREATED state to fund, currently %s", l.Escrow.State))
	}
	if amount <= 0 {
		return nil, newError(CodeAmountOutOfRange, "amount must be greater than zero")
	}
	if amount > l.Buyer.Balance {
		return nil, newError(CodeInsufficientBalance, "insufficient buyer balance")
	}

	l.Buyer.Balance -= amount
	l.Escrow.Amount = amount
	l.Escrow.State = models.StateFunded

	return []models.SettlementEvent{
		newEvent(l, models.ActionFunded, models.ActorP1, amount, ""),
	}, nil
}

// Confirm records actor's consent to release. The first confirmer moves
// the escrow to its confirmed state; the second triggers the release,
// crediting the seller and emitting two events: one documenting the
// confirmation, one documenting the release. Funds never move without
// both confirmations on the trail.
func Confirm(l *models.Ledger, actor models.Actor) ([]models.SettlementEvent, error) {
	if actor != models.ActorP1 && actor != models.ActorP2 {
		return nil, newError(CodeInvalidActorForState, fmt.Sprintf("unknown actor %q", actor))
	}

	switch l.Escrow.State {
	case models.StateCreated:
		return nil, newError(CodeNotFunded, "escrow must be funded before confirmations")
	case models.StateReleased:
		return nil, newError(CodeAlreadyReleased, "escrow already released")
	}

	confirmAction := models.ActionP1Confirmed
	if actor == models.ActorP2 {
		confirmAction = models.ActionP2Confirmed
	}

	release := (actor == models.ActorP1 && l.Escrow.State == models.StateP2Confirmed) ||
		(actor == models.ActorP2 && l.Escrow.State == models.StateP1Confirmed)
	if release {
		released := l.Escrow.Amount
		if l.Seller.Balance > math.MaxInt64-released {
			return nil, newError(CodeAmountOutOfRange, "seller balance would overflow")
		}

		l.Seller.Balance += released
		l.Escrow.Amount = 0
		l.Escrow.State = models.StateReleased

		// Both events snapshot the post-release state. The confirmation
		// event documents this party's consent, the release event the
		// resulting transfer.
		return []models.SettlementEvent{
			newEvent(l, confirmAction, actor, released,
				fmt.Sprintf("%s confirmed escrow release", actor)),
			newEvent(l, models.ActionReleased, actor, released, ""),
		}, nil
	}

	if l.Escrow.State != models.StateFunded {
		return nil, newError(CodeInvalidActorForState,
			fmt.Sprintf("%s cannot confirm while escrow is %s", actor, l.Escrow.State))
	}

	if actor == models.ActorP1 {
		l.Escrow.State = models.StateP1Confirmed
	} else {
		l.Escrow.State = models.StateP2Confirmed
	}

	return []models.SettlementEvent{
		newEvent(l, confirmAction, actor, l.Escrow.Amount,
			fmt.Sprintf("%s confirmed escrow", actor)),
	}, nil
}

// ToggleNotarization enables or disables best-effort notarization of
// committed transitions. Legal only while the escrow is in CREATED.
// Emits no event.
func ToggleNotarization(l *models.Ledger, enabled bool) error {
	if l.Escrow.State != models.StateCreated {
		return newError(CodeInvalidState, "cannot toggle notarization during an active escrow")
	}
	l.Escrow.NotarizationEnabled = enabled
	return nil
}

// FundAccount credits target's balance directly. Legal in any escrow
// state; this is the only operation that injects funds into the system.
func FundAccount(l *models.Ledger, target models.Actor, amount int64) ([]models.SettlementEvent, error) {
	if amount <= 0 {
		return nil, newError(CodeAmountOutOfRange, "amount must be greater than zero")
	}

	party := &l.Buyer
	if target == models.ActorP2 {
		party = &l.Seller
	} else if target != models.ActorP1 {
		return nil, newError(CodeInvalidActorForState, fmt.Sprintf("unknown target %q", target))
	}

	if party.Balance > math.MaxInt64-amount {
		return nil, newError(CodeAmountOutOfRange, "party balance would overflow")
	}
	party.Balance += amount

	return []models.SettlementEvent{
		newEvent(l, models.ActionAccountFunded, target, amount, ""),
	}, nil
}

// Reset restores the seed balances, empties the escrow, re-enables
// notarization, and returns the single RESET event that restarts the
// audit trail. Always legal.
func Reset(l *models.Ledger, seed Seed) ([]models.SettlementEvent, error) {
	l.Buyer.Balance = seed.BuyerBalance
	l.Seller.Balance = seed.SellerBalance
	l.Escrow.Amount = 0
	l.Escrow.State = models.StateCreated
	l.Escrow.NotarizationEnabled = true

	return []models.SettlementEvent{
		newEvent(l, models.ActionReset, "", 0, "system reset to initial state"),
	}, nil
}

// newEvent captures the post-transition snapshot. The store assigns ID,
// sequence, and timestamp on append.
func newEvent(l *models.Ledger, action models.Action, actor models.Actor, amount int64, note string) models.SettlementEvent {
	return models.SettlementEvent{
		EscrowID: l.Escrow.ID,
		Action:   action,
		Actor:    actor,
		Amount:   amount,
		Snapshot: models.Snapshot{
			EscrowState:   l.Escrow.State,
			BuyerBalance:  l.Buyer.Balance,
			SellerBalance: l.Seller.Balance,
			Amount:        l.Escrow.Amount,
			Note:          note,
		},
	}
}
