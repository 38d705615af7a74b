package main

import (
	"time"

	"stocksim/internal/config"
	ledgerDAO "stocksim/internal/dao/ledger"
	simulationDAO "stocksim/internal/dao/simulation"
	"stocksim/internal/database"
	enginesim "stocksim/internal/engines/simulation"
	"stocksim/internal/engines/trading"
	"stocksim/internal/handlers"
	"stocksim/internal/logging"
	"stocksim/internal/services"
	"stocksim/internal/services/market"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Environment)

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := database.GetDB()

	// Run database migrations and seed the instrument catalog
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run database migrations: %v", err)
	}
	if err := database.SeedInstruments(db); err != nil {
		logger.Fatalf("Failed to seed instruments: %v", err)
	}

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(logger))

	// CORS middleware for development
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize DAOs
	sessions := simulationDAO.NewSessionDAO(db)
	instruments := simulationDAO.NewInstrumentDAO(db)
	ledger := ledgerDAO.NewLedgerDAO(db)

	// Initialize the price oracle, with a Redis quote cache when configured
	quoteSource := market.NewYahooClient(cfg.QuoteBaseURL, time.Duration(cfg.QuoteTimeoutSeconds)*time.Second, logger)
	var quoteCache *market.QuoteCache
	if cfg.RedisAddr != "" {
		quoteCache = market.NewQuoteCache(cfg.RedisAddr)
		logger.Infof("Quote cache enabled at %s", cfg.RedisAddr)
	}
	prices := market.NewPriceService(quoteSource, quoteCache, logger)

	// Initialize services and engines
	holdings := services.NewHoldingsResolver(ledger)
	valuator := services.NewPortfolioValuator(holdings, prices, instruments, logger)
	executor := trading.NewTradeExecutor(db, sessions, instruments, ledger, holdings, logger)
	engine := enginesim.NewSimulationEngine(db, sessions, valuator, enginesim.Settings{
		StartYearMin: cfg.StartYearMin,
		StartYearMax: cfg.StartYearMax,
		StartingCash: cfg.StartingCash,
	}, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	simulationHandler := handlers.NewSimulationHandler(engine)
	tradeHandler := handlers.NewTradeHandler(executor, engine)
	marketHandler := handlers.NewMarketHandler(instruments, engine, prices)

	// Health check endpoint
	r.GET("/health", healthHandler.Health)

	// API routes group
	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandler.Health)

		handlers.RegisterSimulationRoutes(api, simulationHandler)
		handlers.RegisterTradeRoutes(api, tradeHandler)
		handlers.RegisterMarketRoutes(api, marketHandler)
	}

	// Start server
	logger.Infof("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
