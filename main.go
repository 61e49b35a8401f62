package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inference-gateway/config"
	"inference-gateway/database"
	"inference-gateway/gateway"
	"inference-gateway/handlers"
	"inference-gateway/huggingface"
	"inference-gateway/metrics"
	"inference-gateway/middleware"
	"inference-gateway/provider"
	"inference-gateway/rabbitmq"
	"inference-gateway/stubprovider"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	metrics.Register()
	// Sinks doing I/O run behind a buffered background worker.
	var sinks []gateway.Observer

	// Run history is optional
	var history handlers.History
	if cfg.HistoryEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		db, err := database.NewDatabase(ctx, cfg)
		if err != nil {
			cancel()
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := db.RunMigrations(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to run migrations: %v", err)
		}
		cancel()
		defer db.Close()

		history = db
		sinks = append(sinks, database.HistoryObserver{DB: db})
	}

	// Run events are optional
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Fatalf("Failed to create run event publisher: %v", err)
		}
		defer publisher.Close()
		sinks = append(sinks, rabbitmq.EventObserver{Publisher: publisher})
	}

	observers := []gateway.Observer{metrics.Observer{}}
	var async *gateway.AsyncObserver
	if len(sinks) > 0 {
		async = gateway.NewAsyncObserver(cfg.ObserverBuffer, sinks...)
		observers = append(observers, async)
	}

	gw, err := gateway.New(cfg, adapters(cfg), observers...)
	if err != nil {
		log.Fatalf("Failed to initialize gateway: %v", err)
	}

	router := setupRouter(cfg, handlers.NewHandlers(gw, history, cfg.ProviderBackend))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"backend": cfg.ProviderBackend,
			"history": cfg.HistoryEnabled,
		}).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	// Deliver queued run records before the sinks are closed.
	if async != nil {
		async.Close()
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func adapters(cfg *config.Config) []provider.Adapter {
	if cfg.ProviderBackend == config.BackendStub {
		log.Warn("Using stub provider, responses are synthetic")
		return stubprovider.All()
	}
	return huggingface.All(huggingface.NewClient(&http.Client{}))
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", handlers.SessionHeader},
		ExposeHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if allowsAll(cfg.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := router.Group("/")
	limited.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	h.Register(limited)

	return router
}

func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
