package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/storage"
)

// ScenariosHandler serves the time-machine scenario endpoints
type ScenariosHandler struct {
	store storage.Storage
	log   *zap.SugaredLogger
}

// NewScenariosHandler creates a scenarios handler over the given storage
func NewScenariosHandler(store storage.Storage, log *zap.SugaredLogger) *ScenariosHandler {
	return &ScenariosHandler{store: store, log: log}
}

// RegisterRoutes mounts the scenario endpoints on an authenticated router
func (h *ScenariosHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePath(contract.API.ScenariosList), h.List).Methods(contract.API.ScenariosList.Method)
	router.HandleFunc(routePath(contract.API.ScenariosCreate), h.Create).Methods(contract.API.ScenariosCreate.Method)
	router.HandleFunc(routePath(contract.API.ScenariosDelete), h.Delete).Methods(contract.API.ScenariosDelete.Method)
}

// List returns all scenarios for the current user
func (h *ScenariosHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	scenarios, err := h.store.GetScenarios(r.Context(), principal.Subject)
	if err != nil {
		h.log.Errorw("failed to list scenarios", "user", principal.Subject, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scenarios)
}

// Create saves a scenario for the current user. The date arrives as an ISO
// string and is parsed here; the amount is checked to be a decimal string and
// passed through untouched.
func (h *ScenariosHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var input contract.InsertScenario
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, &contract.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}
	if err := contract.Validate(input); err != nil {
		writeError(w, err)
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		writeError(w, &contract.ValidationError{Field: "date", Message: "date must be an ISO 8601 date"})
		return
	}

	// The decimal parse only gates the input. The original text is what gets
	// stored, so "1000.50" reads back as "1000.50", not "1000.5".
	if _, err := decimal.NewFromString(input.InvestmentAmount); err != nil {
		writeError(w, &contract.ValidationError{Field: "investmentAmount", Message: "investmentAmount must be a decimal number"})
		return
	}

	scenario, err := h.store.CreateScenario(r.Context(), principal.Subject, storage.NewScenario{
		CoinID:           input.CoinID,
		Date:             date,
		InvestmentAmount: input.InvestmentAmount,
		Notes:            input.Notes,
	})
	if err != nil {
		h.log.Errorw("failed to create scenario", "user", principal.Subject, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, scenario)
}

// Delete removes a scenario by id, unconditionally (see FavoritesHandler.Delete)
func (h *ScenariosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.PrincipalFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, &contract.ValidationError{Field: "id", Message: "Invalid id"})
		return
	}

	if err := h.store.DeleteScenario(r.Context(), uint(id)); err != nil {
		h.log.Errorw("failed to delete scenario", "id", id, "err", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseDate accepts full RFC 3339 timestamps and bare yyyy-mm-dd dates
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
