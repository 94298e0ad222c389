package handlers

import (
	"net/http"

	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type StatementHandler struct {
	statementService services.StatementService
}

func NewStatementHandler(statementService services.StatementService) *StatementHandler {
	return &StatementHandler{statementService: statementService}
}

func (h *StatementHandler) HandleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	statement, err := h.statementService.GenerateIncomeStatement(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, statement)
}

func (h *StatementHandler) HandleCashFlowStatement(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	statement, err := h.statementService.GenerateCashFlowStatement(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, statement)
}
