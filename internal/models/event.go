package models

// Action is the kind of settlement transition an event documents.
type Action string

const (
	ActionFunded        Action = "FUNDED"
	ActionP1Confirmed   Action = "P1_CONFIRMED"
	ActionP2Confirmed   Action = "P2_CONFIRMED"
	ActionReleased      Action = "RELEASED"
	ActionReset         Action = "RESET"
	ActionAccountFunded Action = "ACCOUNT_FUNDED"
)

// Snapshot captures the post-transition system state at the moment an
// event was committed. It is recorded once and never recomputed.
type Snapshot struct {
	// EscrowState is the escrow state after the transition.
	EscrowState State `json:"escrowState"`

	// BuyerBalance and SellerBalance are the party balances after the
	// transition.
	BuyerBalance  int64 `json:"buyerBalance"`
	SellerBalance int64 `json:"sellerBalance"`

	// Amount is the sum held in escrow after the transition.
	Amount int64 `json:"amount"`

	// Note is an optional free-form annotation for the audit trail.
	Note string `json:"note,omitempty"`
}

// Notarization records the outcome of submitting an event to the external
// notarization ledger. Either the receipt fields or Error is set.
type Notarization struct {
	// ExternalRef is the ledger's reference for the submitted memo.
	ExternalRef string `json:"externalRef,omitempty"`

	// LedgerAnchor is the ledger position the memo was anchored at.
	LedgerAnchor string `json:"ledgerAnchor,omitempty"`

	// Error holds the failure message when submission did not succeed.
	Error string `json:"errorMessage,omitempty"`
}

// SettlementEvent is one immutable entry in the audit trail. Events are
// appended in causal order within the transaction that committed the
// transition; the only later mutation permitted is a single patch of the
// Notarization field by the notarization pipeline.
type SettlementEvent struct {
	// ID is the unique identifier for the event (UUID format).
	ID string `json:"id"`

	// Seq is the store-assigned monotonic sequence number. Insertion
	// order equals causal order.
	Seq int64 `json:"-"`

	// EscrowID references the escrow the event belongs to.
	EscrowID string `json:"escrowId"`

	// Action is the transition kind this event documents.
	Action Action `json:"action"`

	// Actor is the party that triggered the transition. Empty for RESET.
	Actor Actor `json:"actor,omitempty"`

	// Amount is the sum the action moved: the funded amount for FUNDED,
	// the released amount for confirmation and RELEASED events, the
	// top-up amount for ACCOUNT_FUNDED, zero for RESET. Distinct from
	// Snapshot.Amount, which is the sum still held after the transition.
	Amount int64 `json:"amount"`

	// CreatedAt is the Unix timestamp in milliseconds when the event was
	// appended.
	CreatedAt int64 `json:"createdAt"`

	// Snapshot is the post-transition system state.
	Snapshot Snapshot `json:"snapshot"`

	// Notarization is set once the notarization pipeline has recorded an
	// outcome for this event; nil while pending or when notarization was
	// disabled at commit time.
	Notarization *Notarization `json:"notarization,omitempty"`
}
