package model

import "time"

// PurchaseRecord is an append-only entry in a user's purchase history. The
// checkout session id doubles as the fulfillment idempotency key.
type PurchaseRecord struct {
	ID                int64     `json:"id"`
	UserID            string    `json:"user_id"`
	PackageID         string    `json:"package_id"`
	Coins             int       `json:"coins"`
	PriceUSDCents     int       `json:"price_usd_cents"`
	CheckoutSessionID *string   `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
