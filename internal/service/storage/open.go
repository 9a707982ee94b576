package storage

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string // local | gdrive
	Directory   string
	Bucket      string
	BaseURL     string
	Credentials string
	FolderID    string
}

// Open creates the ObjectStore named by opts.Backend.
func Open(ctx context.Context, opts Options) (ObjectStore, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "local":
		store, err := NewLocalStore(opts.Directory, opts.Bucket, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "gdrive":
		store, err := NewDriveStore(ctx, opts.Credentials, opts.FolderID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
