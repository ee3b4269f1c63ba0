package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/ledger"
)

func setupTestService(t *testing.T) (*Service, *ledger.Repository) {
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
		return nil, nil
	}

	ctx := context.Background()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if _, err := database.Exec(`TRUNCATE transactions, archived_transactions CASCADE`); err != nil {
		t.Fatalf("Failed to truncate: %v", err)
	}

	t.Cleanup(func() {
		database.Exec(`TRUNCATE transactions, archived_transactions CASCADE`)
		database.Close()
	})

	ledgerRepo := ledger.NewRepository(database, log)
	return NewService(NewRepository(database, log), ledgerRepo, database, log), ledgerRepo
}

func TestArchiveRoundTrip(t *testing.T) {
	service, ledgerRepo := setupTestService(t)
	if service == nil {
		return
	}
	ctx := context.Background()

	txn, err := ledgerRepo.CreateTransaction(ctx, &ledger.Transaction{
		UserID:        "user-1",
		Amount:        "75.00",
		PaymentMethod: "credit_card",
		Description:   ledger.DescriptionOrder,
		Status:        ledger.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	archived, err := service.Archive(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}
	if archived.OriginalTransactionID != txn.ID {
		t.Errorf("original id = %d, want %d", archived.OriginalTransactionID, txn.ID)
	}

	// Gone from the live table.
	if _, err := ledgerRepo.GetTransaction(ctx, txn.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("archived transaction still live: %v", err)
	}

	restored, err := service.Unarchive(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Failed to unarchive: %v", err)
	}
	if restored.ID != txn.ID {
		t.Errorf("restored id = %d, want original %d", restored.ID, txn.ID)
	}
	if restored.Amount != txn.Amount || restored.UserID != txn.UserID ||
		restored.Status != txn.Status || restored.PaymentMethod != txn.PaymentMethod ||
		restored.Description != txn.Description {
		t.Errorf("restored transaction differs from original: %+v vs %+v", restored, txn)
	}

	// Gone from the archive.
	if _, err := service.GetArchived(ctx, txn.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("restored transaction still archived: %v", err)
	}
}

func TestArchiveRefusesPending(t *testing.T) {
	service, ledgerRepo := setupTestService(t)
	if service == nil {
		return
	}
	ctx := context.Background()

	txn, err := ledgerRepo.CreateTransaction(ctx, &ledger.Transaction{
		UserID: "user-1", Amount: "10.00", Description: ledger.DescriptionPayout, Status: ledger.StatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	if _, err := service.Archive(ctx, txn.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// Still live.
	if _, err := ledgerRepo.GetTransaction(ctx, txn.ID); err != nil {
		t.Errorf("pending transaction disappeared: %v", err)
	}
}

func TestArchiveMissingTransaction(t *testing.T) {
	service, _ := setupTestService(t)
	if service == nil {
		return
	}

	if _, err := service.Archive(context.Background(), 12345); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Archiving must not free the id for reuse.
func TestArchivedIDNotReallocated(t *testing.T) {
	service, ledgerRepo := setupTestService(t)
	if service == nil {
		return
	}
	ctx := context.Background()

	var last *ledger.Transaction
	for i := 0; i < 2; i++ {
		var err error
		last, err = ledgerRepo.CreateTransaction(ctx, &ledger.Transaction{
			UserID: "user-1", Amount: "10.00", Description: ledger.DescriptionOrder, Status: ledger.StatusCompleted,
		})
		if err != nil {
			t.Fatalf("Failed to create transaction: %v", err)
		}
	}

	if _, err := service.Archive(ctx, last.ID); err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}

	next, err := ledgerRepo.NextTransactionID(ctx)
	if err != nil {
		t.Fatalf("Failed to compute next id: %v", err)
	}
	if next != last.ID+1 {
		t.Errorf("next id = %d, want %d (archived ids stay reserved)", next, last.ID+1)
	}
}
