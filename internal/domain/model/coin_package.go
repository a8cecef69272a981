package model

// CoinPackage is a static catalog entry used to build a provider checkout
// request. Packages are echoed into the purchase history, never persisted
// on their own.
type CoinPackage struct {
	ID            string `json:"id"`
	Coins         int    `json:"coins"`
	PriceUSDCents int    `json:"price_usd_cents"`
	Description   string `json:"description"`
}

// CoinPackages is the fixed offer catalog.
var CoinPackages = []CoinPackage{
	{ID: "coins_50", Coins: 50, PriceUSDCents: 499, Description: "Starter pack"},
	{ID: "coins_120", Coins: 120, PriceUSDCents: 999, Description: "Reader pack"},
	{ID: "coins_300", Coins: 300, PriceUSDCents: 1999, Description: "Binge pack"},
	{ID: "coins_650", Coins: 650, PriceUSDCents: 3999, Description: "Devotee pack"},
}

// CoinPackageByID resolves a package id against the fixed catalog.
func CoinPackageByID(id string) (CoinPackage, bool) {
	for _, p := range CoinPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CoinPackage{}, false
}
