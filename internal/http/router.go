package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pam-backend/internal/config"
	"pam-backend/internal/handlers"
	"pam-backend/internal/middleware"
)

func NewRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	siteHandler *handlers.SiteHandler,
	requestHandler *handlers.RequestHandler,
	stockHandler *handlers.StockHandler,
	reportHandler *handlers.ReportHandler,
	totpHandler *handlers.TOTPHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.PanicRecovery)
	r.Use(middleware.NewCORS(cfg))
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Public routes
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/login/2fa", authHandler.Verify2FA).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Account
	api.HandleFunc("/users", authHandler.CreateUser).Methods("POST")
	api.HandleFunc("/users/password", authHandler.ChangePassword).Methods("PUT")
	api.HandleFunc("/users/2fa/setup", totpHandler.Setup).Methods("POST")
	api.HandleFunc("/users/2fa/verify", totpHandler.VerifyEnable).Methods("POST")
	api.HandleFunc("/users/2fa", totpHandler.Status).Methods("GET")

	// Access scope and lookups
	api.HandleFunc("/countries", siteHandler.UserCountries).Methods("GET")
	api.HandleFunc("/sites", siteHandler.UserSites).Methods("GET")
	api.HandleFunc("/sites/transfer-targets", siteHandler.TransferTargets).Methods("GET")
	api.HandleFunc("/subcontractors", siteHandler.Subcontractors).Methods("GET")
	api.HandleFunc("/subcontractors/{subID}/contracts", siteHandler.ContractNumbers).Methods("GET")
	api.HandleFunc("/items/search", siteHandler.SearchItems).Methods("GET")
	api.HandleFunc("/cost-codes", siteHandler.CostCodes).Methods("GET")

	// Material requests
	api.HandleFunc("/requests/new-data", requestHandler.NewRequestData).Methods("GET")
	api.HandleFunc("/requests", requestHandler.Create).Methods("POST")
	api.HandleFunc("/requests", requestHandler.List).Methods("GET")
	api.HandleFunc("/requests/{id}", requestHandler.Get).Methods("GET")
	api.HandleFunc("/requests/{id}", requestHandler.Edit).Methods("PUT")
	api.HandleFunc("/requests/{id}/approve", requestHandler.Approve).Methods("POST")
	api.HandleFunc("/requests/{id}/reject", requestHandler.Reject).Methods("POST")
	api.HandleFunc("/requests/{id}/pdf", requestHandler.PDF).Methods("GET")

	// Stock ledger
	api.HandleFunc("/stock/in", stockHandler.Receive).Methods("POST")
	api.HandleFunc("/stock/out", stockHandler.Issue).Methods("POST")
	api.HandleFunc("/stock/items/{itemID}/unit", stockHandler.ItemUnit).Methods("GET")
	api.HandleFunc("/stock/available", stockHandler.AvailableQty).Methods("GET")

	// Reports
	api.HandleFunc("/reports/stock-status", reportHandler.StockStatus).Methods("GET")
	api.HandleFunc("/reports/stock-status/excel", reportHandler.StockStatusExcel).Methods("GET")
	api.HandleFunc("/reports/stock-status/pdf", reportHandler.StockStatusPDF).Methods("GET")

	// Admin
	api.HandleFunc("/admin/email-logs", adminHandler.RecentEmailLogs).Methods("GET")

	return r
}
