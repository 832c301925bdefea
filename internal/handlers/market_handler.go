package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/market"
)

// MarketHandler serves the unauthenticated market-data proxy endpoints.
// They never fail: upstream outages are absorbed by the market client's
// fallback data.
type MarketHandler struct {
	client *market.Client
}

// NewMarketHandler creates a market handler over the given upstream client
func NewMarketHandler(client *market.Client) *MarketHandler {
	return &MarketHandler{client: client}
}

// RegisterRoutes mounts the market endpoints on a public router
func (h *MarketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePath(contract.API.CryptoMarket), h.Snapshot).Methods(contract.API.CryptoMarket.Method)
	router.HandleFunc(routePath(contract.API.CryptoHistory), h.History).Methods(contract.API.CryptoHistory.Method)
}

// Snapshot returns the current market snapshot
func (h *MarketHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.client.Snapshot(r.Context()))
}

// History returns a 30-day daily price series for one asset
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, h.client.History(r.Context(), id))
}
