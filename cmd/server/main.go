// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authservice "authgate/internal/auth/service"
	authhttp "authgate/internal/auth/transport/http"
	"authgate/internal/config"
	"authgate/internal/logging"
	"authgate/internal/metrics"
	"authgate/internal/migrations"
	tokenrepository "authgate/internal/token/repository"
	userrepository "authgate/internal/user/repository"
	"authgate/pkg/db"
	"authgate/pkg/middleware"
)

var server *http.Server

func main() {
	logger := logging.NewJSON("api")
	ctx := context.Background()

	cfg := config.Load()
	metrics.InitMetrics()

	database, err := db.Connect(db.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName), cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	// Трафик не принимаем, пока хранилище недоступно и схема не применена.
	if err := db.WaitReady(ctx, database, 2*time.Minute); err != nil {
		log.Fatalf("Database not reachable: %v", err)
	}
	if err := migrations.Up(ctx, database); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	logger.Info(ctx, "database ready")

	// --- ИНИЦИАЛИЗАЦИЯ СЛОЁВ ---
	userRepo := userrepository.NewPostgresUserRepository(database)
	tokenRepo := tokenrepository.NewSessionTokenRepository(database)
	authService := authservice.NewAuthService(userRepo, tokenRepo, cfg.TokenTTL, logger)
	h := authhttp.NewHandler(authService, logger)

	// --- РОУТЕР ---
	r := chi.NewRouter()

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.TokenHeader},
		ExposedHeaders:   []string{middleware.TokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.ValidateRequest)
	// Дедлайн на запрос: исчерпание пула соединений даёт ограниченный
	// по времени отказ, а не зависание.
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Публичные роуты
	r.Post("/auth/login", h.Login)

	// Защищённая группа маршрутов
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.SessionAuth(tokenRepo, logger))
		pr.Post("/auth/logout", h.Logout)
		pr.Get("/auth/me", h.Me)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Group(func(mr chi.Router) {
		mr.Use(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPassword))
		mr.Handle("/metrics", promhttp.Handler())
	})

	server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info(ctx, "server running", "addr", cfg.HTTPAddr)

	// Graceful shutdown на сигналы ОС
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info(ctx, "shutdown signal received")
		shutdownServer()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
