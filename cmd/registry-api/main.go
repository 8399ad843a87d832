package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"blue-carbon/registry-backend/internal/analysis"
	"blue-carbon/registry-backend/internal/blockchain"
	"blue-carbon/registry-backend/internal/config"
	"blue-carbon/registry-backend/internal/credits"
	"blue-carbon/registry-backend/internal/marketplace"
	"blue-carbon/registry-backend/internal/pricing"
	"blue-carbon/registry-backend/internal/projects"
	"blue-carbon/registry-backend/internal/registry"
	"blue-carbon/registry-backend/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Logging.Level == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&projects.Project{},
		&projects.StatusHistory{},
		&verification.Record{},
		&credits.CreditLedger{},
		&marketplace.Listing{},
		&blockchain.Receipt{},
	); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Collaborators, simulated or real chosen once here
	var chain blockchain.Collaborator
	if cfg.Blockchain.Simulated {
		chain = blockchain.NewSimulated(cfg.Blockchain.Network)
	} else {
		logger.Fatal("no real chain client configured, set blockchain.simulated")
	}

	var imageStore analysis.ImageStore
	if cfg.Storage.Simulated {
		imageStore = analysis.NewMemoryImageStore()
	} else {
		imageStore, err = analysis.NewS3Store(context.Background(), analysis.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			PathStyle: cfg.Storage.PathStyle,
		})
		if err != nil {
			logger.Fatal("Failed to init image store", zap.Error(err))
		}
	}

	priceSource := pricing.NewBinanceSource(
		cfg.Pricing.BinanceBaseURL,
		cfg.Pricing.BaseCarbonPrice,
		cfg.Pricing.RequestTimeout,
		logger,
	)

	// Services
	projectSvc := projects.NewService(projects.NewRepository(db), logger)
	creditSvc := credits.NewService(credits.NewRepository(db), projectSvc, logger)
	gate := verification.NewGate(verification.NewRepository(db), projectSvc, logger)
	receiptRepo := blockchain.NewReceiptRepository(db)
	registrySvc := registry.NewService(projectSvc, creditSvc, chain, receiptRepo,
		priceSource, cfg.Blockchain.CallTimeout, logger)
	analysisSvc := analysis.NewService(analysis.NewSimulated(), imageStore, projectSvc, logger)
	marketSvc := marketplace.NewManager(marketplace.NewRepository(db), creditSvc, priceSource, logger)

	// Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	{
		projects.NewHandler(projectSvc).RegisterRoutes(api)
		verification.NewHandler(gate).RegisterRoutes(api)
		analysis.NewHandler(analysisSvc).RegisterRoutes(api)
		registry.NewHandler(registrySvc).RegisterRoutes(api)
		marketplace.NewHandler(marketSvc, priceSource).RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Background price refresh keeps the quote cache warm
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Pricing.RefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Pricing.RequestTimeout)
		defer cancel()
		priceSource.Refresh(ctx)
	}); err != nil {
		logger.Fatal("Failed to schedule price refresh", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", cfg.Server.GetServerAddr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
