package models

// EscrowStatus is the escrow portion of a state snapshot returned to
// callers.
type EscrowStatus struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Amount int64  `json:"amount"`
}

// PartyStatus is the party portion of a state snapshot returned to callers.
type PartyStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// SystemState is the consistent Escrow+Party snapshot every settlement
// operation returns.
type SystemState struct {
	NotarizationEnabled bool         `json:"notarizationEnabled"`
	Escrow              EscrowStatus `json:"escrow"`
	Buyer               PartyStatus  `json:"buyer"`
	Seller              PartyStatus  `json:"seller"`
}

// NewSystemState builds the caller-facing snapshot from a ledger view.
func NewSystemState(l *Ledger) *SystemState {
	return &SystemState{
		NotarizationEnabled: l.Escrow.NotarizationEnabled,
		Escrow: EscrowStatus{
			ID:     l.Escrow.ID,
			State:  l.Escrow.State,
			Amount: l.Escrow.Amount,
		},
		Buyer: PartyStatus{
			ID:      l.Buyer.ID,
			Name:    l.Buyer.Name,
			Balance: l.Buyer.Balance,
		},
		Seller: PartyStatus{
			ID:      l.Seller.ID,
			Name:    l.Seller.Name,
			Balance: l.Seller.Balance,
		},
	}
}
