package payout

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/redis"
	"github.com/mfadhilr/edupay/internal/ledger"
	"github.com/mfadhilr/edupay/internal/wallet"
	"github.com/mfadhilr/edupay/pkg/outbox"
)

type payoutFixture struct {
	service *Service
	ledger  *ledger.Repository
	wallets *wallet.Service
	db      *db.DB
}

func setupTestFixture(t *testing.T) *payoutFixture {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	dbCfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            "5432",
		User:            "postgres",
		Password:        "postgres",
		DBName:          "edupay_test",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}

	log := logger.New("test")
	database, err := db.Connect(dbCfg, log)
	if err != nil {
		t.Skipf("Cannot connect to database: %v", err)
		return nil
	}

	ctx := context.Background()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	truncate := `TRUNCATE transactions, archived_transactions, wallets, wallet_events, instructor_earnings, payout_requests, outbox_events CASCADE`
	if _, err := database.Exec(truncate); err != nil {
		t.Fatalf("Failed to truncate: %v", err)
	}

	redisCfg := config.RedisConfig{Host: "localhost", Port: "6379", DB: 0}
	redisClient, err := redis.Connect(redisCfg, log)
	if err != nil {
		database.Close()
		t.Skipf("Cannot connect to Redis: %v", err)
		return nil
	}

	t.Cleanup(func() {
		database.Exec(truncate)
		redisClient.FlushDB(context.Background())
		redisClient.Close()
		database.Close()
	})

	ledgerRepo := ledger.NewRepository(database, log)
	walletService := wallet.NewService(wallet.NewRepository(database, log), database, redisClient, log)
	outboxRepo := outbox.NewRepository(database.DB, log)
	repo := NewRepository(database, log)
	service := NewService(repo, ledgerRepo, walletService, outboxRepo, database, redisClient, log)
	walletService.SetHoldProvider(service)

	return &payoutFixture{
		service: service,
		ledger:  ledgerRepo,
		wallets: walletService,
		db:      database,
	}
}

// seedEarnings gives an instructor a funded wallet and matching earnings, the
// state a settled order leaves behind.
func seedEarnings(t *testing.T, f *payoutFixture, instructorID, amount string) {
	t.Helper()
	err := f.db.WithTransaction(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		if err := f.wallets.EnsureWalletTx(ctx, tx, instructorID); err != nil {
			return err
		}
		if _, err := f.wallets.CreditTx(ctx, tx, instructorID, amount, nil); err != nil {
			return err
		}
		return f.wallets.AddEarningTx(ctx, tx, instructorID, amount)
	})
	if err != nil {
		t.Fatalf("Failed to seed earnings: %v", err)
	}
}

func TestCreatePayout(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-1", "100.00")

	p, err := f.service.CreatePayout(ctx, "inst-1", "40.00")
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("status = %s, want pending", p.Status)
	}

	// The backing ledger transaction is pending until the request resolves.
	txn, err := f.ledger.GetTransaction(ctx, p.TransactionID)
	if err != nil {
		t.Fatalf("Failed to get backing transaction: %v", err)
	}
	if txn.Status != ledger.StatusPending || txn.Description != ledger.DescriptionPayout {
		t.Errorf("backing transaction = %s/%s, want pending/payout", txn.Status, txn.Description)
	}

	// The pending request reduces reported availability.
	_, available, err := f.wallets.Earnings(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Failed to get earnings: %v", err)
	}
	if available != "60.00" {
		t.Errorf("available = %s, want 60.00", available)
	}
}

func TestCreatePayoutInsufficientFunds(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-2", "50.00")

	_, err := f.service.CreatePayout(ctx, "inst-2", "50.01")
	if !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

// A second request may only claim what the first has not already held.
func TestPendingHoldLimitsNextRequest(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-3", "100.00")

	if _, err := f.service.CreatePayout(ctx, "inst-3", "80.00"); err != nil {
		t.Fatalf("Failed to create first payout: %v", err)
	}

	_, err := f.service.CreatePayout(ctx, "inst-3", "30.00")
	if !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds for over-held request, got %v", err)
	}

	if _, err := f.service.CreatePayout(ctx, "inst-3", "20.00"); err != nil {
		t.Fatalf("Request within remaining availability failed: %v", err)
	}
}

func TestAcceptPayout(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-4", "100.00")

	p, err := f.service.CreatePayout(ctx, "inst-4", "40.00")
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}

	approved, err := f.service.AcceptPayout(ctx, p.ID)
	if err != nil {
		t.Fatalf("Failed to accept payout: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ProcessedAt == nil {
		t.Error("processed_at not set")
	}

	w, err := f.wallets.GetWallet(ctx, "inst-4")
	if err != nil {
		t.Fatalf("Failed to get wallet: %v", err)
	}
	if w.Balance != "60.00" {
		t.Errorf("wallet balance = %s, want 60.00", w.Balance)
	}

	e, available, err := f.wallets.Earnings(ctx, "inst-4")
	if err != nil {
		t.Fatalf("Failed to get earnings: %v", err)
	}
	if e.TotalWithdrawn != "40.00" {
		t.Errorf("total withdrawn = %s, want 40.00", e.TotalWithdrawn)
	}
	if available != "60.00" {
		t.Errorf("available = %s, want 60.00", available)
	}

	txn, err := f.ledger.GetTransaction(ctx, p.TransactionID)
	if err != nil {
		t.Fatalf("Failed to get backing transaction: %v", err)
	}
	if txn.Status != ledger.StatusCompleted {
		t.Errorf("backing transaction status = %s, want completed", txn.Status)
	}

	// Approving a second time must fail without moving money again.
	_, err = f.service.AcceptPayout(ctx, p.ID)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on re-approval, got %v", err)
	}
}

func TestDenyPayout(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-5", "100.00")

	p, err := f.service.CreatePayout(ctx, "inst-5", "70.00")
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}

	// A reason is mandatory.
	_, err = f.service.DenyPayout(ctx, p.ID, "  ")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty reason, got %v", err)
	}

	denied, err := f.service.DenyPayout(ctx, p.ID, "bank details unverified")
	if err != nil {
		t.Fatalf("Failed to deny payout: %v", err)
	}
	if denied.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", denied.Status)
	}
	if denied.Reason != "bank details unverified" {
		t.Errorf("reason = %q, want the recorded reason", denied.Reason)
	}

	// Denial moves no money and releases the hold.
	w, err := f.wallets.GetWallet(ctx, "inst-5")
	if err != nil {
		t.Fatalf("Failed to get wallet: %v", err)
	}
	if w.Balance != "100.00" {
		t.Errorf("wallet balance = %s, want 100.00", w.Balance)
	}

	_, available, err := f.wallets.Earnings(ctx, "inst-5")
	if err != nil {
		t.Fatalf("Failed to get earnings: %v", err)
	}
	if available != "100.00" {
		t.Errorf("available after denial = %s, want 100.00", available)
	}

	txn, err := f.ledger.GetTransaction(ctx, p.TransactionID)
	if err != nil {
		t.Fatalf("Failed to get backing transaction: %v", err)
	}
	if txn.Status != ledger.StatusFailed {
		t.Errorf("backing transaction status = %s, want failed", txn.Status)
	}

	// The full amount is requestable again.
	if _, err := f.service.CreatePayout(ctx, "inst-5", "100.00"); err != nil {
		t.Fatalf("Failed to re-request after denial: %v", err)
	}
}

func TestPayoutViews(t *testing.T) {
	f := setupTestFixture(t)
	if f == nil {
		return
	}
	ctx := context.Background()
	seedEarnings(t, f, "inst-6", "300.00")

	first, err := f.service.CreatePayout(ctx, "inst-6", "100.00")
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}
	second, err := f.service.CreatePayout(ctx, "inst-6", "100.00")
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}

	if _, err := f.service.AcceptPayout(ctx, first.ID); err != nil {
		t.Fatalf("Failed to accept payout: %v", err)
	}
	if _, err := f.service.DenyPayout(ctx, second.ID, "duplicate request"); err != nil {
		t.Fatalf("Failed to deny payout: %v", err)
	}

	pending, err := f.service.PendingPayouts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	approved, err := f.service.ApprovedPayouts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list approved: %v", err)
	}
	rejected, err := f.service.RejectedPayouts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list rejected: %v", err)
	}

	if len(pending) != 0 || len(approved) != 1 || len(rejected) != 1 {
		t.Errorf("views = %d pending / %d approved / %d rejected, want 0/1/1",
			len(pending), len(approved), len(rejected))
	}

	mine, err := f.service.MyPayouts(ctx, "inst-6", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list own payouts: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("own payout count = %d, want 2", len(mine))
	}
}
