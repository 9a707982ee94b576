// Package storage holds the object stores captured images are uploaded to.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	// ErrObjectExists is returned by Put when the name is taken and upsert is off.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned for names the store does not hold.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidName is returned for empty names or names containing a path.
	ErrInvalidName = errors.New("invalid object name")
)

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType string
	// Upsert overwrites an existing object of the same name.
	Upsert bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name     string
	Size     int64
	Modified time.Time
}

// ObjectStore is a flat namespace of named blobs with public URLs.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, opts PutOptions) error
	// PublicURL returns an externally resolvable address for name.
	PublicURL(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// validateName rejects names that would escape the bucket.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
