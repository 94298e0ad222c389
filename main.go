package main

import (
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/pulabus/backend/src/config"
	"github.com/username/pulabus/backend/src/database"
	"github.com/username/pulabus/backend/src/handlers"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"https://pulabus.bw":    true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("PulaBus finance backend starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	limiter = rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	reportCache := cache.New(config.Cfg.ReportCacheTTL, config.Cfg.ReportCacheCleanup)

	currencyService, err := services.NewCurrencyService(database.DB, config.Cfg.BaseCurrency, nil)
	if err != nil {
		stdlog.Fatalf("failed to initialize currency service: %v", err)
	}
	notificationService := services.NewNotificationService(database.DB, nil)
	reconciliationService := services.NewReconciliationService(database.DB, reportCache, nil)
	expenseService := services.NewExpenseService(database.DB, currencyService, notificationService, nil)
	collectionService := services.NewCollectionService(database.DB, currencyService, nil)
	commissionService := services.NewCommissionService(database.DB, reportCache, nil)
	statementService := services.NewStatementService(database.DB, commissionService)

	currencyHandler := handlers.NewCurrencyHandler(currencyService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	commissionHandler := handlers.NewCommissionHandler(commissionService)
	statementHandler := handlers.NewStatementHandler(statementService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.Cfg.RequestTimeout))
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(rateLimitMiddleware)
	r.Use(enableCORS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/rates", currencyHandler.HandleGetRates)
		r.Put("/rates", currencyHandler.HandleUpdateRates)
		r.Get("/rates/convert", currencyHandler.HandleConvert)

		r.Post("/reconciliations/daily", reconciliationHandler.HandleReconcileDaily)
		r.Get("/reconciliations/report", reconciliationHandler.HandleGetReport)

		r.Post("/expenses", expenseHandler.HandleSubmitExpense)
		r.Post("/expenses/{id}/approve", expenseHandler.HandleApproveExpense)
		r.Post("/expenses/{id}/reject", expenseHandler.HandleRejectExpense)
		r.Get("/expenses/report", expenseHandler.HandleGetReport)

		r.Post("/collections", collectionHandler.HandleRecordCollection)
		r.Post("/collections/{id}/deposit", collectionHandler.HandleDepositCollection)
		r.Get("/collections/report", collectionHandler.HandleGetReport)

		r.Get("/commissions/report", commissionHandler.HandleGetReport)
		r.Get("/commissions/{employeeID}", commissionHandler.HandleCalculateCommission)
		r.Post("/commissions/pay", commissionHandler.HandlePayCommission)

		r.Get("/statements/income", statementHandler.HandleIncomeStatement)
		r.Get("/statements/cashflow", statementHandler.HandleCashFlowStatement)

		r.Get("/notifications", notificationHandler.HandleListNotifications)
		r.Post("/notifications/{id}/read", notificationHandler.HandleMarkRead)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
