package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/brightlead/site/internal/testutil"
	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/logger"
)

func setupTestVault(t *testing.T) (Service, *sql.DB, func()) {
	t.Helper()

	db, err := testutil.NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	svc := NewService(&testutil.TestDBProvider{DB: db}, &config.Config{}, logger.NewNoop())
	if err := svc.Start(context.Background()); err != nil {
		db.Close()
		t.Fatalf("Failed to start service: %v", err)
	}

	cleanup := func() {
		svc.Stop(context.Background())
		db.Close()
	}
	return svc, db, cleanup
}

func TestVaultEmptyByDefault(t *testing.T) {
	svc, _, cleanup := setupTestVault(t)
	defer cleanup()

	token, err := svc.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token, got %q", token)
	}

	username, err := svc.Username(context.Background())
	if err != nil {
		t.Fatalf("Username failed: %v", err)
	}
	if username != "" {
		t.Errorf("Expected empty username, got %q", username)
	}
}

func TestVaultSaveAndRead(t *testing.T) {
	svc, _, cleanup := setupTestVault(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.Save(ctx, "tok-abc", "王管理"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, err := svc.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("Expected tok-abc, got %q", token)
	}

	username, err := svc.Username(ctx)
	if err != nil {
		t.Fatalf("Username failed: %v", err)
	}
	if username != "王管理" {
		t.Errorf("Expected 王管理, got %q", username)
	}
}

func TestVaultSaveOverwrites(t *testing.T) {
	svc, _, cleanup := setupTestVault(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.Save(ctx, "first", "one"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := svc.Save(ctx, "second", "two"); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	token, _ := svc.Token(ctx)
	if token != "second" {
		t.Errorf("Expected second, got %q", token)
	}
}

func TestVaultClear(t *testing.T) {
	svc, _, cleanup := setupTestVault(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.Save(ctx, "tok", "admin"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	token, err := svc.Token(ctx)
	if err != nil {
		t.Fatalf("Token after clear failed: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token after clear, got %q", token)
	}
}

func TestVaultClearWhenEmpty(t *testing.T) {
	svc, _, cleanup := setupTestVault(t)
	defer cleanup()

	if err := svc.Clear(context.Background()); err != nil {
		t.Errorf("Clear on empty vault failed: %v", err)
	}
}
