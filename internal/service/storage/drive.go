package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	driveFileFields     = "id, name, size, modifiedTime"
	driveCleanupTimeout = 10 * time.Second
)

// DriveStore keeps objects as files in one Google Drive folder. Every object
// is shared "anyone with the link can view" so its URL is public.
type DriveStore struct {
	svc      *drive.Service
	folderID string

	mu  sync.Mutex
	ids map[string]string // name -> file id
}

// NewDriveStore authenticates with a service account key file.
func NewDriveStore(ctx context.Context, credentialsFile, folderID string) (*DriveStore, error) {
	if credentialsFile == "" {
		return nil, errors.New("GDRIVE_CREDENTIALS is required for the gdrive storage backend")
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drive credentials: %w", err)
	}

	return NewDriveStoreFromTokenSource(ctx, conf.TokenSource(ctx), folderID)
}

// NewDriveStoreFromTokenSource builds a DriveStore around an existing token source.
func NewDriveStoreFromTokenSource(ctx context.Context, ts oauth2.TokenSource, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	return newDriveStore(ctx, folderID, opts...)
}

// NewDriveStoreFromHTTPClient is used when the caller already holds an
// authorized client (or a test server endpoint).
func NewDriveStoreFromHTTPClient(ctx context.Context, client *http.Client, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	return newDriveStore(ctx, folderID, opts...)
}

func newDriveStore(ctx context.Context, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStore{
		svc:      svc,
		folderID: folderID,
		ids:      make(map[string]string),
	}, nil
}

// Put creates the file, or replaces its content when upsert is set.
func (s *DriveStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) error {
	if err := validateName(name); err != nil {
		return err
	}

	existing, err := s.lookup(ctx, name)
	if err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}

	if existing != "" {
		if !opts.Upsert {
			return fmt.Errorf("%s: %w", name, ErrObjectExists)
		}
		_, err := s.svc.Files.Update(existing, &drive.File{MimeType: opts.ContentType}).
			Media(bytes.NewReader(data), googleapi.ContentType(opts.ContentType)).
			Fields("id").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to update drive file %s: %w", name, err)
		}
		return nil
	}

	file := &drive.File{Name: name, MimeType: opts.ContentType}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.svc.Files.Create(file).
		Media(bytes.NewReader(data), googleapi.ContentType(opts.ContentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to create drive file %s: %w", name, err)
	}

	_, err = s.svc.Permissions.Create(created.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).
		Do()
	if err != nil {
		// An unshared file has no usable URL; remove it so a retry starts clean.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), driveCleanupTimeout)
		defer cancel()
		if derr := s.svc.Files.Delete(created.Id).Context(cleanupCtx).Do(); derr != nil {
			return fmt.Errorf("failed to share drive file %s: %w (cleanup failed: %v)", name, err, derr)
		}
		return fmt.Errorf("failed to share drive file %s: %w", name, err)
	}

	s.mu.Lock()
	s.ids[name] = created.Id
	s.mu.Unlock()

	return nil
}

// PublicURL resolves the file id for name.
func (s *DriveStore) PublicURL(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	id, err := s.lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return drivePublicURL(id), nil
}

// List pages through every file in the folder.
func (s *DriveStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	pageToken := ""

	for {
		call := s.svc.Files.List().
			Q(s.folderQuery("")).
			Fields(googleapi.Field("nextPageToken, files(" + driveFileFields + ")")).
			PageSize(1000).
			OrderBy("name").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list drive files: %w", err)
		}

		for _, f := range result.Files {
			modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			objects = append(objects, ObjectInfo{Name: f.Name, Size: f.Size, Modified: modified})
		}

		if result.NextPageToken == "" {
			return objects, nil
		}
		pageToken = result.NextPageToken
	}
}

// Delete removes name from the folder.
func (s *DriveStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	id, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}

	if err := s.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			err = ErrObjectNotFound
		}
		s.forget(name)
		return fmt.Errorf("failed to delete drive file %s: %w", name, err)
	}

	s.forget(name)
	return nil
}

// lookup returns the cached file id for name or queries Drive for it.
func (s *DriveStore) lookup(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	id, ok := s.ids[name]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	result, err := s.svc.Files.List().
		Q(s.folderQuery(name)).
		Fields(googleapi.Field("files(id)")).
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up drive file %s: %w", name, err)
	}
	if len(result.Files) == 0 {
		return "", fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}

	id = result.Files[0].Id
	s.mu.Lock()
	s.ids[name] = id
	s.mu.Unlock()

	return id, nil
}

func (s *DriveStore) forget(name string) {
	s.mu.Lock()
	delete(s.ids, name)
	s.mu.Unlock()
}

// folderQuery builds a Drive search query for the folder, optionally
// narrowed to one file name.
func (s *DriveStore) folderQuery(name string) string {
	clauses := []string{"trashed = false"}
	if s.folderID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", escapeDriveQuery(s.folderID)))
	}
	if name != "" {
		clauses = append(clauses, fmt.Sprintf("name = '%s'", escapeDriveQuery(name)))
	}
	return strings.Join(clauses, " and ")
}

func escapeDriveQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

func drivePublicURL(id string) string {
	return "https://drive.google.com/uc?export=view&id=" + url.QueryEscape(id)
}
