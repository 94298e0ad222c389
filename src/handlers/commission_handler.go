package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type CommissionHandler struct {
	commissionService services.CommissionService
}

func NewCommissionHandler(commissionService services.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

func (h *CommissionHandler) HandleCalculateCommission(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	result, err := h.commissionService.CalculateCommission(r.Context(), employeeID, start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *CommissionHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	report, err := h.commissionService.GenerateCommissionReport(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

type payCommissionRequest struct {
	EmployeeID string          `json:"employee_id"`
	StartDate  string          `json:"start_date"` // YYYY-MM-DD
	EndDate    string          `json:"end_date"`   // YYYY-MM-DD
	Amount     decimal.Decimal `json:"amount"`
}

func (h *CommissionHandler) HandlePayCommission(w http.ResponseWriter, r *http.Request) {
	var req payCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	start, err := utils.ParseDateParam(req.StartDate)
	if err != nil {
		utils.SendJSONError(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	end, err := utils.ParseDateParam(req.EndDate)
	if err != nil {
		utils.SendJSONError(w, "invalid end_date", http.StatusBadRequest)
		return
	}

	payment, err := h.commissionService.PayCommission(r.Context(), req.EmployeeID, start, end, req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, payment)
}
