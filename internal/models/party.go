package models

// Role identifies which side of the escrow a party sits on.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

// Actor names a party in operation inputs: P1 is the buyer, P2 the seller.
type Actor string

const (
	ActorP1 Actor = "P1"
	ActorP2 Actor = "P2"
)

// Party represents one side of the escrow.
// Parties are created once at seed time and never deleted.
type Party struct {
	// ID is the unique identifier for the party (UUID format).
	ID string

	// Role is the party's side of the escrow (BUYER or SELLER).
	Role Role

	// Name is the display name of the party.
	Name string

	// Balance is the party's simulated balance in the smallest currency
	// unit. Never negative.
	Balance int64
}
