package escrow

import (
	"math"
	"testing"

	"github.com/gassure/escrowd/internal/models"
)

func testLedger() *models.Ledger {
	return &models.Ledger{
		Escrow: models.Escrow{
			ID:                  EscrowID,
			State:               models.StateCreated,
			Amount:              0,
			NotarizationEnabled: true,
			BuyerID:             "buyer-id",
			SellerID:            "seller-id",
		},
		Buyer:  models.Party{ID: "buyer-id", Role: models.RoleBuyer, Name: "Buyer Demo", Balance: 200_000},
		Seller: models.Party{ID: "seller-id", Role: models.RoleSeller, Name: "Seller Demo", Balance: 0},
	}
}

func totalFunds(l *models.Ledger) int64 {
	return l.Buyer.Balance + l.Seller.Balance + l.Escrow.Amount
}

func TestFund(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(l *models.Ledger)
		amount   int64
		wantCode Code
		validate func(t *testing.T, l *models.Ledger, events []models.SettlementEvent)
	}{
		{
			name:   "locks buyer funds and moves to FUNDED",
			amount: 50_000,
			validate: func(t *testing.T, l *models.Ledger, events []models.SettlementEvent) {
				if l.Buyer.Balance != 150_000 {
					t.Errorf("buyer balance = %d, want 150000", l.Buyer.Balance)
				}
				if l.Escrow.Amount != 50_000 {
					t.Errorf("escrow amount = %d, want 50000", l.Escrow.Amount)
				}
				if l.Escrow.State != models.StateFunded {
					t.Errorf("state = %s, want FUNDED", l.Escrow.State)
				}
				if len(events) != 1 || events[0].Action != models.ActionFunded {
					t.Fatalf("events = %+v, want one FUNDED event", events)
				}
				if events[0].Actor != models.ActorP1 {
					t.Errorf("event actor = %s, want P1", events[0].Actor)
				}
				if events[0].Snapshot.BuyerBalance != 150_000 {
					t.Errorf("snapshot buyer balance = %d, want post-transition 150000", events[0].Snapshot.BuyerBalance)
				}
			},
		},
		{
			name:     "rejects amount exceeding buyer balance",
			amount:   300_000,
			wantCode: CodeInsufficientBalance,
		},
		{
			name:     "rejects zero amount",
			amount:   0,
			wantCode: CodeAmountOutOfRange,
		},
		{
			name:     "rejects negative amount",
			amount:   -1,
			wantCode: CodeAmountOutOfRange,
		},
		{
			name:     "rejects funding while already funded",
			prepare:  func(l *models.Ledger) { mustFund(t, l, 10_000) },
			amount:   10_000,
			wantCode: CodeInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLedger()
			if tt.prepare != nil {
				tt.prepare(l)
			}
			before := *l

			events, err := Fund(l, tt.amount)
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Fatalf("Fund error = %v (code %q), want code %q", err, CodeOf(err), tt.wantCode)
				}
				if *l != before {
					t.Error("rejected transition mutated the ledger")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fund failed: %v", err)
			}
			tt.validate(t, l, events)
		})
	}
}

func mustFund(t *testing.T, l *models.Ledger, amount int64) {
	t.Helper()
	if _, err := Fund(l, amount); err != nil {
		t.Fatalf("Fund(%d) failed: %v", amount, err)
	}
}

func mustConfirm(t *testing.T, l *models.Ledger, actor models.Actor) []models.SettlementEvent {
	t.Helper()
	events, err := Confirm(l, actor)
	if err != nil {
		t.Fatalf("Confirm(%s) failed: %v", actor, err)
	}
	return events
}

func TestConfirm(t *testing.T) {
	t.Run("first confirmer only records consent", func(t *testing.T) {
		l := testLedger()
		mustFund(t, l, 50_000)

		events := mustConfirm(t, l, models.ActorP1)

		if l.Escrow.State != models.StateP1Confirmed {
			t.Errorf("state = %s, want P1_CONFIRMED", l.Escrow.State)
		}
		if l.Seller.Balance != 0 {
			t.Errorf("seller balance = %d, funds must not move on first confirmation", l.Seller.Balance)
		}
		if len(events) != 1 || events[0].Action != models.ActionP1Confirmed {
			t.Fatalf("events = %+v, want one P1_CONFIRMED event", events)
		}
	})

	t.Run("second confirmer releases funds in either order", func(t *testing.T) {
		orders := []struct {
			name          string
			first, second models.Actor
			confirmAction models.Action
		}{
			{"P1 then P2", models.ActorP1, models.ActorP2, models.ActionP2Confirmed},
			{"P2 then P1", models.ActorP2, models.ActorP1, models.ActionP1Confirmed},
		}
		for _, o := range orders {
			t.Run(o.name, func(t *testing.T) {
				l := testLedger()
				mustFund(t, l, 50_000)
				mustConfirm(t, l, o.first)

				events := mustConfirm(t, l, o.second)

				if l.Escrow.State != models.StateReleased {
					t.Errorf("state = %s, want RELEASED", l.Escrow.State)
				}
				if l.Seller.Balance != 50_000 {
					t.Errorf("seller balance = %d, want 50000", l.Seller.Balance)
				}
				if l.Escrow.Amount != 0 {
					t.Errorf("escrow amount = %d, want 0", l.Escrow.Amount)
				}
				if len(events) != 2 {
					t.Fatalf("got %d events, want confirmation then release", len(events))
				}
				if events[0].Action != o.confirmAction || events[1].Action != models.ActionReleased {
					t.Errorf("event order = %s, %s; want %s, RELEASED", events[0].Action, events[1].Action, o.confirmAction)
				}
				if events[0].Amount != 50_000 || events[1].Amount != 50_000 {
					t.Errorf("event amounts = %d, %d; want released amount on both", events[0].Amount, events[1].Amount)
				}
				// Both events snapshot the post-release state.
				for i, ev := range events {
					if ev.Snapshot.EscrowState != models.StateReleased || ev.Snapshot.SellerBalance != 50_000 {
						t.Errorf("event %d snapshot = %+v, want post-release state", i, ev.Snapshot)
					}
				}
				if totalFunds(l) != 200_000 {
					t.Errorf("total funds = %d, conservation violated", totalFunds(l))
				}
			})
		}
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name     string
			prepare  func(t *testing.T, l *models.Ledger)
			actor    models.Actor
			wantCode Code
		}{
			{
				name:     "before funding",
				prepare:  func(t *testing.T, l *models.Ledger) {},
				actor:    models.ActorP1,
				wantCode: CodeNotFunded,
			},
			{
				name: "after release",
				prepare: func(t *testing.T, l *models.Ledger) {
					mustFund(t, l, 1_000)
					mustConfirm(t, l, models.ActorP1)
					mustConfirm(t, l, models.ActorP2)
				},
				actor:    models.ActorP1,
				wantCode: CodeAlreadyReleased,
			},
			{
				name: "repeat confirmation by same actor",
				prepare: func(t *testing.T, l *models.Ledger) {
					mustFund(t, l, 1_000)
					mustConfirm(t, l, models.ActorP1)
				},
				actor:    models.ActorP1,
				wantCode: CodeInvalidActorForState,
			},
			{
				name:     "unknown actor",
				prepare:  func(t *testing.T, l *models.Ledger) { mustFund(t, l, 1_000) },
				actor:    "P3",
				wantCode: CodeInvalidActorForState,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				l := testLedger()
				tt.prepare(t, l)
				before := *l

				_, err := Confirm(l, tt.actor)
				if CodeOf(err) != tt.wantCode {
					t.Fatalf("Confirm error = %v (code %q), want code %q", err, CodeOf(err), tt.wantCode)
				}
				if *l != before {
					t.Error("rejected transition mutated the ledger")
				}
			})
		}
	})
}

func TestToggleNotarization(t *testing.T) {
	t.Run("toggles while CREATED", func(t *testing.T) {
		l := testLedger()
		if err := ToggleNotarization(l, false); err != nil {
			t.Fatalf("ToggleNotarization failed: %v", err)
		}
		if l.Escrow.NotarizationEnabled {
			t.Error("notarization still enabled after toggle off")
		}
	})

	t.Run("rejected during active escrow", func(t *testing.T) {
		l := testLedger()
		mustFund(t, l, 1_000)
		err := ToggleNotarization(l, false)
		if CodeOf(err) != CodeInvalidState {
			t.Fatalf("ToggleNotarization error = %v, want INVALID_STATE", err)
		}
	})
}

func TestFundAccount(t *testing.T) {
	t.Run("credits the targeted party in any state", func(t *testing.T) {
		l := testLedger()
		mustFund(t, l, 1_000)

		events, err := FundAccount(l, models.ActorP2, 2_500)
		if err != nil {
			t.Fatalf("FundAccount failed: %v", err)
		}
		if l.Seller.Balance != 2_500 {
			t.Errorf("seller balance = %d, want 2500", l.Seller.Balance)
		}
		if len(events) != 1 || events[0].Action != models.ActionAccountFunded {
			t.Fatalf("events = %+v, want one ACCOUNT_FUNDED event", events)
		}
		if events[0].Actor != models.ActorP2 || events[0].Amount != 2_500 {
			t.Errorf("event = %+v, want target P2 and amount 2500", events[0])
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		l := testLedger()
		if _, err := FundAccount(l, models.ActorP1, 0); CodeOf(err) != CodeAmountOutOfRange {
			t.Errorf("FundAccount(0) error = %v, want AMOUNT_OUT_OF_RANGE", err)
		}
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		l := testLedger()
		if _, err := FundAccount(l, "P9", 100); CodeOf(err) != CodeInvalidActorForState {
			t.Errorf("FundAccount(P9) error = %v, want INVALID_ACTOR_FOR_STATE", err)
		}
	})

	t.Run("rejects balance overflow", func(t *testing.T) {
		l := testLedger()
		l.Buyer.Balance = math.MaxInt64 - 10
		if _, err := FundAccount(l, models.ActorP1, 11); CodeOf(err) != CodeAmountOutOfRange {
			t.Errorf("overflowing FundAccount error = %v, want AMOUNT_OUT_OF_RANGE", err)
		}
	})
}

func TestReset(t *testing.T) {
	l := testLedger()
	mustFund(t, l, 50_000)
	mustConfirm(t, l, models.ActorP1)
	if err := ToggleNotarization(l, false); CodeOf(err) != CodeInvalidState {
		t.Fatalf("toggle mid-escrow error = %v, want INVALID_STATE", err)
	}

	events, err := Reset(l, DefaultSeed)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if l.Escrow.State != models.StateCreated || l.Escrow.Amount != 0 {
		t.Errorf("escrow = %+v, want CREATED with zero amount", l.Escrow)
	}
	if l.Buyer.Balance != 200_000 || l.Seller.Balance != 0 {
		t.Errorf("balances = %d/%d, want seed 200000/0", l.Buyer.Balance, l.Seller.Balance)
	}
	if !l.Escrow.NotarizationEnabled {
		t.Error("reset must re-enable notarization")
	}
	if len(events) != 1 || events[0].Action != models.ActionReset {
		t.Fatalf("events = %+v, want one RESET event", events)
	}
	if events[0].Actor != "" {
		t.Errorf("RESET event actor = %q, want empty", events[0].Actor)
	}

	// Resetting again lands on the identical state.
	again := *l
	if _, err := Reset(l, DefaultSeed); err != nil {
		t.Fatalf("second Reset failed: %v", err)
	}
	if *l != again {
		t.Errorf("second reset diverged: %+v vs %+v", *l, again)
	}
}

func TestConservation(t *testing.T) {
	l := testLedger()
	seedTotal := totalFunds(l)

	mustFund(t, l, 80_000)
	if totalFunds(l) != seedTotal {
		t.Fatalf("total after fund = %d, want %d", totalFunds(l), seedTotal)
	}
	mustConfirm(t, l, models.ActorP2)
	if totalFunds(l) != seedTotal {
		t.Fatalf("total after first confirm = %d, want %d", totalFunds(l), seedTotal)
	}
	mustConfirm(t, l, models.ActorP1)
	if totalFunds(l) != seedTotal {
		t.Fatalf("total after release = %d, want %d", totalFunds(l), seedTotal)
	}

	// fundAccount is the one operation allowed to inject funds.
	if _, err := FundAccount(l, models.ActorP1, 5_000); err != nil {
		t.Fatalf("FundAccount failed: %v", err)
	}
	if totalFunds(l) != seedTotal+5_000 {
		t.Fatalf("total after account funding = %d, want %d", totalFunds(l), seedTotal+5_000)
	}
}
