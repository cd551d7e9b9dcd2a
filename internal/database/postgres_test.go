package database

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/config"
)

// Test configuration for local PostgreSQL
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "host.docker.internal"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "cleanteam"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// connectOrSkip opens a pool against the test database, skipping when none is reachable.
func connectOrSkip(t *testing.T, cfg config.DatabaseConfig) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test, database unavailable: %v", err)
	}
	return db
}

func TestNewPostgresPool_Success(t *testing.T) {
	db := connectOrSkip(t, getTestConfig())
	defer db.Close()

	if db.Pool == nil {
		t.Error("Expected Pool to be initialized")
	}
	if db.Stats() == nil {
		t.Error("Expected stats to be available")
	}
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	if _, err := NewPostgresPool(ctx, cfg); err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestPing_AfterClose(t *testing.T) {
	db := connectOrSkip(t, getTestConfig())
	db.Close()

	if err := db.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after pool is closed")
	}
}

func TestConnString_EscapesCredentials(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "6543",
		Name:     "cleanteam",
		User:     "ops",
		Password: "p@ss:w/rd",
	}

	u, err := url.Parse(ConnString(cfg))
	if err != nil {
		t.Fatalf("ConnString produced an invalid URL: %v", err)
	}
	if pw, _ := u.User.Password(); pw != cfg.Password {
		t.Errorf("expected password %q, got %q", cfg.Password, pw)
	}
	if u.Host != "db.internal:6543" || u.Path != "/cleanteam" {
		t.Errorf("unexpected host/path %q %q", u.Host, u.Path)
	}
	if got := u.Query().Get("application_name"); got != ApplicationName {
		t.Errorf("expected application_name %q, got %q", ApplicationName, got)
	}
}

func TestPing_WithoutPool(t *testing.T) {
	db := &Database{}
	if err := db.Ping(context.Background()); err == nil {
		t.Error("expected error pinging without a pool")
	}
	if db.Stats() != nil {
		t.Error("expected nil stats without a pool")
	}
	db.Close()
}

func TestClose_MultipleCalls(t *testing.T) {
	db := connectOrSkip(t, getTestConfig())

	// Close multiple times should not panic
	db.Close()
	db.Close()
}

func TestStats(t *testing.T) {
	cfg := getTestConfig()
	db := connectOrSkip(t, cfg)
	defer db.Close()

	stats := db.Stats()
	if stats.MaxConns() != int32(cfg.PoolMax) {
		t.Errorf("Expected MaxConns %d, got %d", cfg.PoolMax, stats.MaxConns())
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := connectOrSkip(t, getTestConfig())
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}

	var tables int
	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_name IN ('properties', 'tasks', 'work_logs', 'staff_members', 'team_settings')
	`).Scan(&tables)
	if err != nil {
		t.Fatalf("Failed to inspect schema: %v", err)
	}
	if tables != 5 {
		t.Errorf("Expected 5 tables, got %d", tables)
	}
}

func TestBatchWriter_Postgres(t *testing.T) {
	db := connectOrSkip(t, getTestConfig())
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	team := "batch-test-" + time.Now().Format("150405.000000")
	defer db.Pool.Exec(ctx, `DELETE FROM team_settings WHERE team_id LIKE 'batch-test-%'`)

	w := db.BatchWriter(2)
	for i := 0; i < 3; i++ {
		if err := w.Queue(ctx, `INSERT INTO team_settings (team_id) VALUES ($1) ON CONFLICT DO NOTHING`, team+"-"+string(rune('a'+i))); err != nil {
			t.Fatalf("Queue failed: %v", err)
		}
	}
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if w.Commits() != 2 {
		t.Errorf("Expected 2 commits, got %d", w.Commits())
	}
	if w.RowsAffected() != 3 {
		t.Errorf("Expected 3 rows, got %d", w.RowsAffected())
	}
}
