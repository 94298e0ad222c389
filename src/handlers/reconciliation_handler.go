package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type ReconciliationHandler struct {
	reconciliationService services.ReconciliationService
}

func NewReconciliationHandler(reconciliationService services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

type reconcileDailyRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

func (h *ReconciliationHandler) HandleReconcileDaily(w http.ResponseWriter, r *http.Request) {
	var req reconcileDailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	date, err := utils.ParseDateParam(req.Date)
	if err != nil {
		utils.SendJSONError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	reconciliation, err := h.reconciliationService.ReconcileDaily(r.Context(), date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reconciliation)
}

func (h *ReconciliationHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	report, err := h.reconciliationService.GetReconciliationReport(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
