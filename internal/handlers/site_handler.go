package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

type SiteHandler struct {
	Sites *services.SiteService
}

func NewSiteHandler(sites *services.SiteService) *SiteHandler {
	return &SiteHandler{Sites: sites}
}

// UserCountries lists the countries visible to the authenticated user.
func (h *SiteHandler) UserCountries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countries, err := h.Sites.UserCountries(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, countries)
}

// UserSites lists the sites visible to the user within a country.
func (h *SiteHandler) UserSites(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countryID, err := strconv.Atoi(r.URL.Query().Get("country_id"))
	if err != nil || countryID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid country_id")
		return
	}
	sites, err := h.Sites.UserSites(r.Context(), user, countryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sites)
}

// TransferTargets lists the sites stock can be transferred to.
func (h *SiteHandler) TransferTargets(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	targets, err := h.Sites.TransferTargets(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, targets)
}

func (h *SiteHandler) Subcontractors(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countryID, err := strconv.Atoi(r.URL.Query().Get("country_id"))
	if err != nil || countryID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid country_id")
		return
	}
	subs, err := h.Sites.Subcontractors(r.Context(), user, countryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, subs)
}

func (h *SiteHandler) ContractNumbers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	subID, err := strconv.Atoi(mux.Vars(r)["subID"])
	if err != nil || subID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid subcontractor ID")
		return
	}
	numbers, err := h.Sites.ContractNumbers(r.Context(), user, subID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, numbers)
}

// SearchItems performs a name search over the item catalog.
func (h *SiteHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	items, err := h.Sites.SearchItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

func (h *SiteHandler) CostCodes(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	codes, err := h.Sites.CostCodes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, codes)
}
