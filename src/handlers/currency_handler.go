package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type CurrencyHandler struct {
	currencyService services.CurrencyService
}

func NewCurrencyHandler(currencyService services.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

func (h *CurrencyHandler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"base_currency": h.currencyService.BaseCurrency(),
		"rates":         h.currencyService.Rates(),
	})
}

func (h *CurrencyHandler) HandleUpdateRates(w http.ResponseWriter, r *http.Request) {
	var partial map[string]decimal.Decimal
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot, err := h.currencyService.UpdateRates(r.Context(), partial)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *CurrencyHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		utils.SendJSONError(w, "invalid amount", http.StatusBadRequest)
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		utils.SendJSONError(w, "from and to currency codes are required", http.StatusBadRequest)
		return
	}

	converted, err := h.currencyService.Convert(amount, from, to)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"amount": amount,
		"from":   from,
		"to":     to,
		"result": converted,
	})
}
