// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the settlement engine.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file.
	DBPath string `env:"DB_PATH" envDefault:"./data/escrow.db"`

	// NotaryURL is the notarization ledger endpoint. When empty,
	// submissions fail and are recorded on events; settlement is
	// unaffected.
	NotaryURL string `env:"NOTARY_URL"`

	// NotaryTimeout bounds each ledger submission.
	NotaryTimeout time.Duration `env:"NOTARY_TIMEOUT" envDefault:"10s"`

	// NotaryWorkers is the notarization pool size.
	NotaryWorkers int `env:"NOTARY_WORKERS" envDefault:"4"`

	// NotaryQueueSize bounds the notarization dispatch queue.
	NotaryQueueSize int `env:"NOTARY_QUEUE_SIZE" envDefault:"64"`

	// SeedBuyerBalance and SeedSellerBalance are the initial party
	// balances, also restored by a system reset.
	SeedBuyerBalance  int64 `env:"SEED_BUYER_BALANCE" envDefault:"200000"`
	SeedSellerBalance int64 `env:"SEED_SELLER_BALANCE" envDefault:"0"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
