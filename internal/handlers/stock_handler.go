package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pam-backend/internal/metrics"
	"pam-backend/internal/models"
	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

type StockHandler struct {
	Stock *services.StockService
}

func NewStockHandler(stock *services.StockService) *StockHandler {
	return &StockHandler{Stock: stock}
}

// Receive records material received against a purchase order.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in, err := h.Stock.Receive(r.Context(), user, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.StockMovementsTotal.WithLabelValues("in").Inc()
	utils.JSON(w, http.StatusCreated, in)
}

// Issue records material leaving a site's stock.
func (h *StockHandler) Issue(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.IssueStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	row, err := h.Stock.Issue(r.Context(), user, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.StockMovementsTotal.WithLabelValues("out").Inc()
	utils.JSON(w, http.StatusCreated, row)
}

// ItemUnit returns an item's unit and the caller's current stock of it.
func (h *StockHandler) ItemUnit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.Atoi(mux.Vars(r)["itemID"])
	if err != nil || itemID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	info, err := h.Stock.ItemUnit(r.Context(), user, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, info)
}

// AvailableQty recomputes an item's balance from the ledgers.
func (h *StockHandler) AvailableQty(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	itemID, err := strconv.Atoi(q.Get("item_id"))
	if err != nil || itemID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid item_id")
		return
	}
	siteID, err := strconv.Atoi(q.Get("site_id"))
	if err != nil || siteID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid site_id")
		return
	}
	qty, err := h.Stock.AvailableQty(r.Context(), user, itemID, siteID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]float64{"available": qty})
}
