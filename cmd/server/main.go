package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfadhilr/edupay/internal/archive"
	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/kafka"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/middleware"
	"github.com/mfadhilr/edupay/internal/common/redis"
	"github.com/mfadhilr/edupay/internal/ledger"
	"github.com/mfadhilr/edupay/internal/payout"
	"github.com/mfadhilr/edupay/internal/settlement"
	"github.com/mfadhilr/edupay/internal/wallet"
	"github.com/mfadhilr/edupay/pkg/outbox"
)

const serviceName = "settlement"

func main() {
	godotenv.Load()

	log := logger.New(serviceName)

	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	rdb, err := redis.Connect(cfg.Redis, log)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	producer := kafka.NewProducer(cfg.Kafka, log)
	defer producer.Close()
	if err := producer.Ping(ctx); err != nil {
		log.Warnf("Kafka not reachable at startup, outbox will retry: %v", err)
	}

	// Repositories and services.
	outboxRepo := outbox.NewRepository(database.DB, log)

	ledgerRepo := ledger.NewRepository(database, log)
	ledgerService := ledger.NewService(ledgerRepo, log)

	walletRepo := wallet.NewRepository(database, log)
	walletService := wallet.NewService(walletRepo, database, rdb, log)

	settlementRepo := settlement.NewRepository(database, log)
	settlementService := settlement.NewService(settlementRepo, ledgerRepo, walletService, outboxRepo, database, rdb, log)

	payoutRepo := payout.NewRepository(database, log)
	payoutService := payout.NewService(payoutRepo, ledgerRepo, walletService, outboxRepo, database, rdb, log)

	// Pending payout requests reduce what earnings views report as available.
	walletService.SetHoldProvider(payoutService)

	archiveRepo := archive.NewRepository(database, log)
	archiveService := archive.NewService(archiveRepo, ledgerRepo, database, log)

	// The platform wallet must be readable before any money moves.
	if _, err := walletService.PlatformWallet(ctx); err != nil {
		log.Fatalf("Platform wallet check failed: %v", err)
	}

	// Background workers.
	publisher := outbox.NewPublisher(outboxRepo, producer, log, 2*time.Second)
	go publisher.Start(ctx)

	orderConsumer := kafka.NewConsumer(cfg.Kafka, settlement.TopicOrderPaid, log)
	defer orderConsumer.Close()
	go orderConsumer.Consume(ctx, settlementService.ProcessOrderPaid)

	// HTTP surface.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(r.Context()); err != nil {
			status = "database unavailable"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	ledger.NewHandler(ledgerService).RegisterRoutes(mux, cfg.JWT.Secret)
	wallet.NewHandler(walletService).RegisterRoutes(mux, cfg.JWT.Secret)
	settlement.NewHandler(settlementService).RegisterRoutes(mux, cfg.JWT.Secret)
	payout.NewHandler(payoutService).RegisterRoutes(mux, cfg.JWT.Secret)
	archive.NewHandler(archiveService).RegisterRoutes(mux, cfg.JWT.Secret)

	handler := middleware.Recovery(log)(middleware.Logging(log)(middleware.CORS(mux)))

	server := &http.Server{
		Addr:         ":" + cfg.Service.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Listening on :%s", cfg.Service.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
