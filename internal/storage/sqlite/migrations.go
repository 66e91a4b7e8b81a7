package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database tables.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS parties (
    id TEXT PRIMARY KEY,
    role TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    balance INTEGER NOT NULL CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS escrows (
    id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    amount INTEGER NOT NULL CHECK (amount >= 0),
    notarization_enabled INTEGER NOT NULL,
    buyer_id TEXT NOT NULL,
    seller_id TEXT NOT NULL,
    FOREIGN KEY (buyer_id) REFERENCES parties(id),
    FOREIGN KEY (seller_id) REFERENCES parties(id)
);

CREATE TABLE IF NOT EXISTS events (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    escrow_id TEXT NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL DEFAULT '',
    amount INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    escrow_state TEXT NOT NULL,
    buyer_balance INTEGER NOT NULL,
    seller_balance INTEGER NOT NULL,
    held_amount INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    notary_ref TEXT NOT NULL DEFAULT '',
    notary_anchor TEXT NOT NULL DEFAULT '',
    notary_error TEXT NOT NULL DEFAULT '',
    notary_patched INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (escrow_id) REFERENCES escrows(id)
);

CREATE INDEX IF NOT EXISTS idx_events_escrow_id ON events(escrow_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
