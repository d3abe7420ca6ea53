package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/custodia/backend/docs"
	"github.com/custodia/backend/internal/config"
	"github.com/custodia/backend/internal/database"
	"github.com/custodia/backend/internal/handlers"
	"github.com/custodia/backend/internal/lock"
	mW "github.com/custodia/backend/internal/middleware"
	"github.com/custodia/backend/internal/services"
	"github.com/custodia/backend/internal/store"
)

// @title Custodia Ledger API
// @version 1.0
// @description API for badge custody tracking (registro de salidas y entradas de legajos)
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.SetDefault("jwt.expiry_hours", 12)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	docs.SwaggerInfo.Title = "Custodia Ledger API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ledgerCfg := config.LoadLedgerConfig()

	// Initialize backing stores
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	defer redisClient.Close()

	ledgerStore := store.NewPostgresStore(db)
	propertyStore := store.NewRedisPropertyStore(redisClient)

	coordinator := lock.NewCoordinator(propertyStore, lock.Config{
		Key:            ledgerCfg.LockKey,
		StaleThreshold: ledgerCfg.LockStaleThreshold,
		MaxWait:        ledgerCfg.LockMaxWait,
		PollInterval:   ledgerCfg.LockPollInterval,
	})

	// Services and handlers
	ledgerService := services.NewLedgerService(ledgerStore, coordinator)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	labelService := services.NewLabelService(ledgerStore, redisClient, ledgerCfg.LabelTTL, ledgerCfg.LabelSize)
	labelHandler := handlers.NewLabelHandler(labelService)
	authService := services.NewAuthService(db, redisClient)

	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/ledger/salidas", ledgerHandler.RecordExit)
			r.Post("/ledger/entradas", ledgerHandler.RecordEntry)
			r.Post("/ledger/entradas/reconciliar", ledgerHandler.ReconcileEntry)
			r.Get("/ledger/legajos/{numeroLegajo}", ledgerHandler.QueryStatus)
			r.Get("/ledger/legajos/{numeroLegajo}/label", labelHandler.GenerateLabel)
			r.Post("/ledger/labels/verify", labelHandler.VerifyLabel)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
