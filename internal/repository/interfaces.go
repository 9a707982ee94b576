package repository

import (
	"context"
	"errors"
	"geocapture/internal/model"
	"time"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate")
)

// MetadataRepository stores capture metadata records. Records are insert-only.
type MetadataRepository interface {
	Insert(ctx context.Context, rec *model.CaptureRecord) (int64, error)

	List(ctx context.Context, limit, offset int) ([]model.CaptureRecord, error)
	Count(ctx context.Context) (int, error)
	ImageURLs(ctx context.Context) (map[string]struct{}, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	Insert(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository stores issued access tokens.
type SessionRepository interface {
	Insert(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
