package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ariya-backend/config"
	"ariya-backend/contracts"
	"ariya-backend/flows"
	"ariya-backend/handlers"
	"ariya-backend/metrics"
	"ariya-backend/storage"
	"ariya-backend/storage/migrations"
	"ariya-backend/uploads"
)

const shutdownTimeout = 10 * time.Second

func healthHandler(pool *pgxpool.Pool, network string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "Database connection failed: " + err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"network":   network,
			"timestamp": time.Now().Unix(),
		})
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using default environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	pool, err := storage.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()
	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("Unable to apply migrations: %v\n", err)
	}
	checkins := storage.NewCheckinRepository(pool)

	// Sui node connection
	client, err := contracts.Dial(ctx, cfg.Chain)
	if err != nil {
		log.Fatalf("Unable to connect to Sui node: %v\n", err)
	}
	defer client.Close()
	log.Printf("Connected to Sui %s node at %s", cfg.Chain.Network, cfg.Chain.RPCURL)

	deployment, err := contracts.NewDeployment(cfg.Objects)
	if err != nil {
		log.Fatalf("Invalid deployment object ids: %v\n", err)
	}
	sdk := contracts.NewSDK(client, deployment)

	metrics.Register()

	registration := flows.NewRegistrationFlow(sdk.Identity, sdk.Events, client)
	checkIn := flows.NewCheckInFlow(sdk.Attendance, client, checkins)

	uploadClient := &http.Client{Timeout: 60 * time.Second}
	h := handlers.Handlers{
		Events:        handlers.NewEventHandler(sdk),
		Users:         handlers.NewUserHandler(sdk),
		Registrations: handlers.NewRegistrationHandler(sdk, registration, client),
		Checkins:      handlers.NewCheckinHandler(sdk, checkIn, checkins),
		Airdrops:      handlers.NewAirdropHandler(sdk),
		Communities:   handlers.NewCommunityHandler(sdk),
		Subscriptions: handlers.NewSubscriptionHandler(sdk),
		Uploads: handlers.NewUploadHandler(
			uploads.NewWalrus(cfg.Walrus, uploadClient),
			uploads.NewImageHost(cfg.Images, uploadClient),
		),
	}

	// Setup Gin
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(handlers.Metrics())

	api := router.Group("/api/v1")
	api.Use(handlers.NewRateLimiter(ctx, cfg.Server).Middleware())
	handlers.RegisterRoutes(api, h)

	router.GET("/health", healthHandler(pool, cfg.Chain.Network))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s\n", cfg.Server.Port)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
