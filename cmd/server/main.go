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

	"github.com/gameportal/backend/docs"
	"github.com/gameportal/backend/internal/config"
	"github.com/gameportal/backend/internal/database"
	mW "github.com/gameportal/backend/internal/middleware"
	"github.com/gameportal/backend/internal/services"
)

// @title Game Portal Backend API
// @version 1.0
// @description API for the game-account portal: authentication, donation storefront and payment reconciliation
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("env", "APP_ENV")
	viper.BindEnv("port", "PORT")

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
	viper.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")
	viper.BindEnv("stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	viper.BindEnv("stripe.base_url", "PUBLIC_BASE_URL")

	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	cfg := config.Load()

	docs.SwaggerInfo.Title = "Game Portal Backend API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.BasePath = "/api/v1"

	db := database.InitDatabase(cfg.Database)
	defer db.Close()

	redisClient := database.InitRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	schemes := services.NewSchemeRegistry(cfg.Argon2)
	issuer := services.NewSessionIssuer(cfg.JWT.SecretKey, cfg.IsProduction())
	catalog := services.NewPricingCatalog()
	ledger := services.NewLedgerService(db)

	authService := services.NewAuthService(db, redisClient, schemes, issuer)
	checkoutService := services.NewCheckoutService(catalog, services.NewStripeCheckoutClient(cfg.Stripe))
	webhookProcessor := services.NewWebhookProcessor(ledger, cfg.Stripe.WebhookSecret)

	sessionAuth := mW.SessionAuth(issuer, redisClient)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Stripe.BaseURL},
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

	r.Handle("/static/package-icons/*", http.StripPrefix("/static/package-icons/",
		mW.StaticFileServer("./static/package-icons")))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/auth/verify", authService.VerifySession)
		r.Post("/admin/login", authService.AdminLogin)
		r.Get("/payment/packages", checkoutService.ListPackages)

		// The webhook authenticates itself by signature, not by session.
		r.Post("/webhooks/stripe", webhookProcessor.HandleStripeWebhook)

		// Session-protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth)

			r.Get("/auth/balance", ledger.GetBalance)
			r.Post("/payment/create-checkout", checkoutService.CreateCheckout)

			r.Group(func(r chi.Router) {
				r.Use(mW.RequireAccessLevel(1))
				r.Get("/admin/donations", ledger.ListDonations)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
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
