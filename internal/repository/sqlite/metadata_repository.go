package sqlite

import (
	"context"
	"fmt"

	"geocapture/internal/model"
)

// MetadataRepository implements repository.MetadataRepository for SQLite.
type MetadataRepository struct {
	db *DB
}

// NewMetadataRepository creates a new SQLite capture metadata repository.
func NewMetadataRepository(db *DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Insert adds a capture metadata record. There is no update or delete path.
func (r *MetadataRepository) Insert(ctx context.Context, rec *model.CaptureRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO captures_metadata (image_url, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?)
	`, rec.ImageURL, rec.Latitude, rec.Longitude, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert capture metadata: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// List returns records newest first.
func (r *MetadataRepository) List(ctx context.Context, limit, offset int) ([]model.CaptureRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, image_url, latitude, longitude, created_at
		FROM captures_metadata
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query capture metadata: %w", err)
	}
	defer rows.Close()

	records := []model.CaptureRecord{}
	for rows.Next() {
		var rec model.CaptureRecord
		if err := rows.Scan(&rec.ID, &rec.ImageURL, &rec.Latitude, &rec.Longitude, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture metadata: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the total number of records.
func (r *MetadataRepository) Count(ctx context.Context) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM captures_metadata`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count capture metadata: %w", err)
	}
	return count, nil
}

// ImageURLs returns the set of every referenced image URL.
func (r *MetadataRepository) ImageURLs(ctx context.Context) (map[string]struct{}, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `SELECT DISTINCT image_url FROM captures_metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to query image urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan image url: %w", err)
		}
		urls[url] = struct{}{}
	}

	return urls, rows.Err()
}
