package models

// State is the escrow's position in the settlement state machine.
type State string

const (
	// StateCreated is the initial state: no funds held.
	StateCreated State = "CREATED"

	// StateFunded means the buyer's funds are locked in the escrow.
	StateFunded State = "FUNDED"

	// StateP1Confirmed means the buyer has confirmed; awaiting the seller.
	StateP1Confirmed State = "P1_CONFIRMED"

	// StateP2Confirmed means the seller has confirmed; awaiting the buyer.
	StateP2Confirmed State = "P2_CONFIRMED"

	// StateReleased means funds have been released to the seller.
	// Operationally terminal until a system reset.
	StateReleased State = "RELEASED"
)

// Escrow is the singleton locked-funds record. One instance exists per
// deployment; a reset restores it to initial values without destroying
// its identity.
//
// Invariant: Amount == 0 in CREATED and RELEASED, Amount > 0 otherwise.
type Escrow struct {
	// ID is the fixed identifier of the singleton escrow.
	ID string

	// State is the current settlement state.
	State State

	// Amount is the sum currently held in escrow, in the smallest
	// currency unit.
	Amount int64

	// NotarizationEnabled controls whether committed transitions are
	// submitted to the external notarization ledger. Mutable only while
	// the escrow is in CREATED.
	NotarizationEnabled bool

	// BuyerID and SellerID reference the two Party records.
	BuyerID  string
	SellerID string
}

// Ledger is a consistent view of the escrow and both parties, loaded and
// persisted as one unit inside a storage transaction.
type Ledger struct {
	Escrow Escrow
	Buyer  Party
	Seller Party
}
