package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	Reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

func (h *ReportHandler) siteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	siteID, err := strconv.Atoi(r.URL.Query().Get("site_id"))
	if err != nil || siteID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid site_id")
		return 0, false
	}
	return siteID, true
}

// StockStatus returns the per-item balance report for a site.
func (h *ReportHandler) StockStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, ok := h.siteID(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.StockStatus(r.Context(), user, siteID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) StockStatusExcel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, ok := h.siteID(w, r)
	if !ok {
		return
	}
	data, err := h.Reports.StockStatusExcel(r.Context(), user, siteID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.Binary(w, xlsxContentType, fmt.Sprintf("stock-status-%d.xlsx", siteID), data)
}

func (h *ReportHandler) StockStatusPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, ok := h.siteID(w, r)
	if !ok {
		return
	}
	data, err := h.Reports.StockStatusPDF(r.Context(), user, siteID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.Binary(w, "application/pdf", fmt.Sprintf("stock-status-%d.pdf", siteID), data)
}
