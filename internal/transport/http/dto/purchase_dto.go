package dto

import "time"

type CoinPackageResponse struct {
	ID            string `json:"id"`
	Coins         int    `json:"coins"`
	PriceUSDCents int    `json:"price_usd_cents"`
	Description   string `json:"description"`
}

type CoinPackagesResponse struct {
	Packages []CoinPackageResponse `json:"packages"`
}

type CheckoutCreateRequest struct {
	PackageID string `json:"package_id"`
}

type CheckoutCreateResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type CheckoutConfirmRequest struct {
	SessionID string `json:"session_id"`
}

type CheckoutConfirmResponse struct {
	OK         bool `json:"ok"`
	Applied    bool `json:"applied"`
	NewBalance int  `json:"new_balance"`
}

type WebhookResponse struct {
	OK      bool `json:"ok"`
	Applied bool `json:"applied"`
}

type PurchaseRecordResponse struct {
	ID            int64     `json:"id"`
	PackageID     string    `json:"package_id"`
	Coins         int       `json:"coins"`
	PriceUSDCents int       `json:"price_usd_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

type PurchaseHistoryResponse struct {
	Purchases []PurchaseRecordResponse `json:"purchases"`
}
