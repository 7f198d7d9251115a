package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pam-backend/internal/models"
	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

type RequestHandler struct {
	Requests *services.RequestService
	Reports  *services.ReportService
}

func NewRequestHandler(requests *services.RequestService, reports *services.ReportService) *RequestHandler {
	return &RequestHandler{Requests: requests, Reports: reports}
}

// NewRequestData previews the reference number the next request at a site will get.
func (h *RequestHandler) NewRequestData(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, err := strconv.Atoi(r.URL.Query().Get("site_id"))
	if err != nil || siteID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid site_id")
		return
	}
	data, err := h.Requests.NewRequestData(r.Context(), user, siteID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, data)
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, err := strconv.Atoi(r.URL.Query().Get("site_id"))
	if err != nil || siteID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid site_id")
		return
	}
	var req models.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := h.Requests.Create(r.Context(), user, siteID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

// List returns the requests for a site, optionally filtered by status.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	siteID, err := strconv.Atoi(r.URL.Query().Get("site_id"))
	if err != nil || siteID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid site_id")
		return
	}
	requests, err := h.Requests.List(r.Context(), user, siteID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	req, err := h.Requests.GetWithDetails(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, req)
}

// Approve advances the request along the approval workflow.
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	req, err := h.Requests.Approve(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	var body models.RejectRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req, err := h.Requests.Reject(r.Context(), user, id, body.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	var body models.EditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req, err := h.Requests.Edit(r.Context(), user, id, &body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, req)
}

// PDF streams a printable copy of a single request.
func (h *RequestHandler) PDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	pdf, err := h.Reports.RequestPDF(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.Binary(w, "application/pdf", fmt.Sprintf("request-%d.pdf", id), pdf)
}
