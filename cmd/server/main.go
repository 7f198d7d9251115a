package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"pam-backend/internal/access"
	"pam-backend/internal/auth"
	"pam-backend/internal/cache"
	"pam-backend/internal/config"
	"pam-backend/internal/database"
	"pam-backend/internal/db"
	"pam-backend/internal/handlers"
	"pam-backend/internal/health"
	h "pam-backend/internal/http"
	"pam-backend/internal/logger"
	"pam-backend/internal/mailer"
	"pam-backend/internal/middleware"
	"pam-backend/internal/monitoring"
	"pam-backend/internal/repositories"
	"pam-backend/internal/services"
	"pam-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	monitorPort := flag.Int("monitor-port", 9090, "Monitoring dashboard port")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	logger.SetLevel(cfg.Log.Level)

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional; the stock-status cache degrades to direct queries.
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v", err)
	} else {
		log.Println("[Redis] Cache connected")
	}

	// Migrations are embedded so the binary runs standalone.
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool, migrations.Files)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	siteRepo := repositories.NewSiteRepository(pool)
	countryRepo := repositories.NewCountryRepository(pool)
	itemRepo := repositories.NewItemRepository(pool)
	subRepo := repositories.NewSubcontractorRepository(pool)
	requestRepo := repositories.NewMaterialRequestRepository(pool)
	poRepo := repositories.NewPurchaseOrderRepository(pool)
	stockRepo := repositories.NewStockRepository(pool)
	emailLogRepo := repositories.NewEmailLogRepository(pool)
	totpRepo := repositories.NewTOTPRepository(pool)

	resolver := access.NewResolver(repositories.NewDirectory(pool))

	// Mail goes out over SMTP when configured, otherwise into a mock that
	// only logs. The send log is kept either way.
	var mail mailer.Provider
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(&mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Println("[Mailer] SMTP not configured, transfer notices will not be delivered")
		mail = mailer.NewMockMailer()
	}
	mail.SetLogRepository(emailLogRepo)

	statusCache := cache.NewStockStatusCache()

	// Services
	userService := services.NewUserService(userRepo, totpRepo, jwtManager)
	totpService := services.NewTOTPService(totpRepo)
	siteService := services.NewSiteService(resolver, siteRepo, subRepo, itemRepo)
	requestService := services.NewRequestService(requestRepo, siteRepo, resolver)
	notificationService := services.NewNotificationService(userRepo, siteRepo, countryRepo, mail)
	stockService := services.NewStockService(stockRepo, poRepo, requestRepo,
		itemRepo, subRepo, siteRepo, resolver, notificationService, statusCache,
		cfg.Stock.AllowNegative)
	reportService := services.NewReportService(stockRepo, requestRepo, itemRepo, resolver, statusCache)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, totpService, jwtManager)
	siteHandler := handlers.NewSiteHandler(siteService)
	requestHandler := handlers.NewRequestHandler(requestService, reportService)
	stockHandler := handlers.NewStockHandler(stockService)
	reportHandler := handlers.NewReportHandler(reportService)
	totpHandler := handlers.NewTOTPHandler(totpService)
	adminHandler := handlers.NewAdminHandler(emailLogRepo)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := h.NewRouter(cfg,
		authHandler, siteHandler, requestHandler, stockHandler,
		reportHandler, totpHandler, adminHandler, healthHandler, authMiddleware)

	go monitoring.NewMonitoringServer(pool, stockRepo, *monitorPort).Start()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
