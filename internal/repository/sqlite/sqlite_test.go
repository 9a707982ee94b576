package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"geocapture/internal/model"
	"geocapture/internal/repository"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		db.Close()
	}
}

// ========================================
// Metadata Repository Tests
// ========================================

func TestMetadataRepository_Insert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMetadataRepository(db)
	ctx := context.Background()

	rec := &model.CaptureRecord{
		ImageURL:  "http://localhost:8080/public/captures/capture-1700000000000.png",
		Latitude:  12.9,
		Longitude: 77.6,
		CreatedAt: "2023-11-14T22:13:20.000Z",
	}

	id, err := repo.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id <= 0 || rec.ID != id {
		t.Errorf("Expected positive id stored on the record, got id=%d rec.ID=%d", id, rec.ID)
	}

	records, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ImageURL != rec.ImageURL || got.Latitude != 12.9 || got.Longitude != 77.6 || got.CreatedAt != rec.CreatedAt {
		t.Errorf("Round-tripped record differs: %+v", got)
	}
}

func TestMetadataRepository_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMetadataRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.Insert(ctx, &model.CaptureRecord{
			ImageURL:  fmt.Sprintf("http://example.test/capture-%d.png", i),
			CreatedAt: model.FormatCreatedAt(base.Add(time.Duration(i) * time.Minute)),
		})
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	page, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(page))
	}
	if page[0].ImageURL != "http://example.test/capture-4.png" {
		t.Errorf("Expected newest first, got %s", page[0].ImageURL)
	}

	last, err := repo.List(ctx, 2, 4)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(last) != 1 || last[0].ImageURL != "http://example.test/capture-0.png" {
		t.Errorf("Unexpected last page: %+v", last)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}
}

func TestMetadataRepository_ImageURLs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMetadataRepository(db)
	ctx := context.Background()

	for _, url := range []string{"a.png", "b.png", "a.png"} {
		if _, err := repo.Insert(ctx, &model.CaptureRecord{ImageURL: url, CreatedAt: "2025-01-01T00:00:00.000Z"}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	urls, err := repo.ImageURLs(ctx)
	if err != nil {
		t.Fatalf("ImageURLs failed: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("Expected 2 distinct urls, got %d", len(urls))
	}
	if _, ok := urls["b.png"]; !ok {
		t.Error("Expected b.png in the url set")
	}
}

func TestMetadataRepository_ConcurrentInsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMetadataRepository(db)
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(ctx, &model.CaptureRecord{
				ImageURL:  fmt.Sprintf("concurrent-%d.png", idx),
				CreatedAt: model.FormatCreatedAt(time.Now()),
			})
			done <- err
		}(i)
	}

	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("Concurrent insert failed: %v", err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 records, got %d", count)
	}
}

// ========================================
// User & Session Repository Tests
// ========================================

func TestUserRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{
		ID:           "2b1d3c4e-0000-4000-8000-000000000001",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Insert(ctx, user); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "hash" {
		t.Errorf("Unexpected user: %+v", got)
	}

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &model.User{ID: "u1", Email: "dup@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	second := &model.User{ID: "u2", Email: "dup@example.com", PasswordHash: "y", CreatedAt: time.Now()}

	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := repo.Insert(ctx, second)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	if err := users.Insert(ctx, &model.User{ID: "u1", Email: "s@example.com", PasswordHash: "x", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}

	now := time.Now().UTC()
	live := &model.Session{AccessToken: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{AccessToken: "stale", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{live, stale} {
		if err := sessions.Insert(ctx, s); err != nil {
			t.Fatalf("Insert session failed: %v", err)
		}
	}

	got, err := sessions.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "u1" || got.Expired(now) {
		t.Errorf("Unexpected session: %+v", got)
	}

	removed, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired session removed, got %d", removed)
	}

	if err := sessions.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := sessions.Get(ctx, "live"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := sessions.Delete(ctx, "live"); err != nil {
		t.Errorf("Deleting a missing session should not fail: %v", err)
	}
}
