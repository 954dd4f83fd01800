package models

import "time"

// AvailabilityRecord is a number currently obtainable for purchase, as
// reported by the marketplace on a single poll. Records are transient and
// never persisted directly.
type AvailabilityRecord struct {
	Number  string
	Price   float64
	Country int
	Service string
}

// PurchasedNumber is a successfully purchased number. It is immutable once
// created and persists in the ledger for the lifetime of the deployment.
type PurchasedNumber struct {
	Number        string
	TransactionID string
	Price         float64
	Country       int
	Service       string
	PurchasedAt   time.Time
}
