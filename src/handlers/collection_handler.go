package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type CollectionHandler struct {
	collectionService services.CollectionService
}

func NewCollectionHandler(collectionService services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

func (h *CollectionHandler) HandleRecordCollection(w http.ResponseWriter, r *http.Request) {
	var input services.RecordCollectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if input.CollectedBy == "" || input.Currency == "" || input.PaymentMethod == "" {
		utils.SendJSONError(w, "collected_by, currency and payment_method are required", http.StatusBadRequest)
		return
	}

	collection, err := h.collectionService.RecordCollection(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, collection)
}

type depositRequest struct {
	DepositedBy string `json:"deposited_by"`
	BankAccount string `json:"bank_account"`
}

func (h *CollectionHandler) HandleDepositCollection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "id")

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DepositedBy == "" || req.BankAccount == "" {
		utils.SendJSONError(w, "deposited_by and bank_account are required", http.StatusBadRequest)
		return
	}

	collection, err := h.collectionService.DepositCollection(r.Context(), collectionID, req.DepositedBy, req.BankAccount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, collection)
}

func (h *CollectionHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parsePeriod(r)
	if !ok {
		utils.SendJSONError(w, "startDate and endDate are required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	report, err := h.collectionService.GetCollectionsReport(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
