package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LocalStore keeps objects as files under <root>/<bucket>. Public URLs point
// at <baseURL>/public/<bucket>/<name>, which the HTTP router serves.
type LocalStore struct {
	dir     string
	bucket  string
	baseURL string
	mu      sync.Mutex
}

// NewLocalStore creates the bucket directory if needed.
func NewLocalStore(root, bucket, baseURL string) (*LocalStore, error) {
	if bucket == "" || validateName(bucket) != nil {
		return nil, fmt.Errorf("invalid bucket name %q", bucket)
	}

	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	return &LocalStore{
		dir:     dir,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Bucket returns the bucket name.
func (s *LocalStore) Bucket() string {
	return s.bucket
}

// Path returns the file path for name.
func (s *LocalStore) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Put writes data via a temp file and rename so readers never see a partial object.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) error {
	target, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !opts.Upsert {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s: %w", name, ErrObjectExists)
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	return nil
}

// PublicURL builds the URL without checking the object exists.
func (s *LocalStore) PublicURL(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/public/%s/%s", s.baseURL, url.PathEscape(s.bucket), url.PathEscape(name)), nil
}

// List returns stored objects sorted by name. Temp files are skipped.
func (s *LocalStore) List(ctx context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket: %w", err)
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, ObjectInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// Delete removes name.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	target, err := s.Path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
