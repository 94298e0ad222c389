package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/pulabus/backend/src/models"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type ExpenseHandler struct {
	expenseService services.ExpenseService
}

func NewExpenseHandler(expenseService services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) HandleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if input.Category == "" || input.Currency == "" || input.SubmittedBy == "" {
		utils.SendJSONError(w, "category, currency and submitted_by are required", http.StatusBadRequest)
		return
	}

	expense, err := h.expenseService.SubmitExpense(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, expense)
}

type expenseDecisionRequest struct {
	ApproverID string `json:"approver_id"`
	Comments   string `json:"comments"`
	Reason     string `json:"reason"`
}

func (h *ExpenseHandler) HandleApproveExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := chi.URLParam(r, "id")

	var req expenseDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.expenseService.ApproveExpense(r.Context(), expenseID, req.ApproverID, req.Comments)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) HandleRejectExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := chi.URLParam(r, "id")

	var req expenseDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.expenseService.RejectExpense(r.Context(), expenseID, req.ApproverID, req.Reason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := services.ExpenseFilters{
		Category:    models.ExpenseCategory(q.Get("category")),
		Status:      models.ExpenseStatus(q.Get("status")),
		SubmittedBy: q.Get("submittedBy"),
	}
	if v := q.Get("startDate"); v != "" {
		start, err := utils.ParseDateParam(v)
		if err != nil {
			utils.SendJSONError(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		filters.StartDate = &start
	}
	if v := q.Get("endDate"); v != "" {
		end, err := utils.ParseDateParam(v)
		if err != nil {
			utils.SendJSONError(w, "invalid endDate", http.StatusBadRequest)
			return
		}
		filters.EndDate = &end
	}

	report, err := h.expenseService.GetExpenseReport(r.Context(), filters)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
