// Package models defines the core domain records for the escrow
// settlement engine.
//
// # Records
//
//   - Party: one side of the escrow (buyer or seller) with a simulated balance
//   - Escrow: the singleton locked-funds record mediating the transfer
//   - SettlementEvent: one immutable audit-trail entry per committed transition
//   - Ledger: the consistent in-memory view (Escrow + both Parties) that
//     state-machine transitions operate on
//
// # Design Principles
//
//  1. All monetary values are int64 amounts in the smallest currency unit;
//     no floating point anywhere in the money path.
//  2. Records reference each other by ID strings, never by pointers.
//  3. SettlementEvent is immutable once appended, except for a single later
//     patch of its notarization fields by the notarization pipeline.
//  4. Only the state machine (internal/escrow) mutates Party and Escrow
//     values, and only inside one storage transaction.
package models
