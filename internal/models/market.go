package models

// Coin is one row of the market snapshot. Field names follow the upstream
// provider's JSON so live and fallback responses are indistinguishable.
type Coin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
}

// PriceHistory is a daily price series for one asset, oldest first.
// Each sample is a [unix-millis, price] pair.
type PriceHistory struct {
	Prices [][2]float64 `json:"prices"`
}
