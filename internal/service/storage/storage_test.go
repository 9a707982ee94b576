package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

// ========================================
// LocalStore Tests
// ========================================

func newTestLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()

	root := t.TempDir()
	store, err := NewLocalStore(root, "captures", "http://localhost:8080/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store, filepath.Join(root, "captures")
}

func TestLocalStore_PutAndPublicURL(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "capture-1700000000000.png", []byte("png-bytes"), PutOptions{ContentType: "image/png", Upsert: true})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "capture-1700000000000.png"))
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Unexpected content %q", string(data))
	}

	url, err := store.PublicURL(ctx, "capture-1700000000000.png")
	if err != nil {
		t.Fatalf("PublicURL failed: %v", err)
	}
	expected := "http://localhost:8080/public/captures/capture-1700000000000.png"
	if url != expected {
		t.Errorf("Expected %s, got %s", expected, url)
	}
}

func TestLocalStore_UpsertSemantics(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "a.png", []byte("one"), PutOptions{}); err != nil {
		t.Fatalf("First put failed: %v", err)
	}

	err := store.Put(ctx, "a.png", []byte("two"), PutOptions{})
	if !errors.Is(err, ErrObjectExists) {
		t.Errorf("Expected ErrObjectExists without upsert, got %v", err)
	}

	if err := store.Put(ctx, "a.png", []byte("three"), PutOptions{Upsert: true}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.png"))
	if string(data) != "three" {
		t.Errorf("Expected upsert to overwrite, got %q", string(data))
	}
}

func TestLocalStore_InvalidNames(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../escape.png", "dir/file.png", `dir\file.png`} {
		if err := store.Put(ctx, name, []byte("x"), PutOptions{Upsert: true}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) expected ErrInvalidName, got %v", name, err)
		}
		if _, err := store.PublicURL(ctx, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("PublicURL(%q) expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestLocalStore_ListAndDelete(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	for _, name := range []string{"b.png", "a.png"} {
		if err := store.Put(ctx, name, []byte(name), PutOptions{Upsert: true}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	objects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 || objects[0].Name != "a.png" || objects[1].Name != "b.png" {
		t.Fatalf("Unexpected listing: %+v", objects)
	}
	if objects[0].Size != int64(len("a.png")) {
		t.Errorf("Unexpected size %d", objects[0].Size)
	}

	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "a.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStore_ConcurrentUpserts(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, "same.png", []byte("data"), PutOptions{Upsert: true}); err != nil {
				t.Errorf("Concurrent put failed: %v", err)
			}
		}()
	}
	wg.Wait()

	objects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 1 {
		t.Errorf("Expected a single object and no leftover temp files, got %+v", objects)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "late.png", []byte("x"), PutOptions{Upsert: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// ========================================
// DriveStore Tests
// ========================================

// fakeDrive serves the subset of the Drive v3 files API used by lookups,
// listings and deletes.
type fakeDrive struct {
	mu        sync.Mutex
	files     map[string]string // id -> name
	queries   []string
	deleted   []string
	failShare bool
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		q := r.URL.Query().Get("q")
		f.queries = append(f.queries, q)

		type file struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Size string `json:"size"`
		}
		var out []file
		for id, name := range f.files {
			if strings.Contains(q, "name = ") && !strings.Contains(q, "name = '"+name+"'") {
				continue
			}
			out = append(out, file{ID: id, Name: name, Size: "3"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"files": out})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
		io.Copy(io.Discard, r.Body)
		id := "created-" + strconv.Itoa(len(f.files)+1)
		f.files[id] = "uploaded"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/permissions"):
		if f.failShare {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": map[string]interface{}{"code": 403, "message": "sharing disabled"}})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "anyoneWithLink"})

	case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/files/"):
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if _, ok := f.files[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": map[string]interface{}{"code": 404, "message": "File not found"}})
			return
		}
		delete(f.files, id)
		f.deleted = append(f.deleted, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newTestDriveStore(t *testing.T, fake *fakeDrive) *DriveStore {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewDriveStoreFromHTTPClient(context.Background(), server.Client(), "folder-1",
		option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("Failed to create drive store: %v", err)
	}
	return store
}

func TestDriveStore_PublicURL(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{"file-abc": "capture-1.png"}}
	store := newTestDriveStore(t, fake)

	url, err := store.PublicURL(context.Background(), "capture-1.png")
	if err != nil {
		t.Fatalf("PublicURL failed: %v", err)
	}
	if url != "https://drive.google.com/uc?export=view&id=file-abc" {
		t.Errorf("Unexpected url %s", url)
	}

	if len(fake.queries) != 1 || !strings.Contains(fake.queries[0], "'folder-1' in parents") {
		t.Errorf("Lookup should be scoped to the folder, queries: %v", fake.queries)
	}

	// Second lookup is served from the id cache.
	if _, err := store.PublicURL(context.Background(), "capture-1.png"); err != nil {
		t.Fatalf("PublicURL failed: %v", err)
	}
	if len(fake.queries) != 1 {
		t.Errorf("Expected cached lookup, got %d queries", len(fake.queries))
	}
}

func TestDriveStore_MissingObject(t *testing.T) {
	store := newTestDriveStore(t, &fakeDrive{files: map[string]string{}})

	_, err := store.PublicURL(context.Background(), "missing.png")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound, got %v", err)
	}
}

func TestDriveStore_ListAndDelete(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{"id-1": "a.png", "id-2": "b.png"}}
	store := newTestDriveStore(t, fake)
	ctx := context.Background()

	objects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("Expected 2 objects, got %+v", objects)
	}

	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "id-1" {
		t.Errorf("Unexpected deletes: %v", fake.deleted)
	}
}

func TestDriveStore_PutShares(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}}
	store := newTestDriveStore(t, fake)

	if err := store.Put(context.Background(), "capture-1.png", []byte("png"), PutOptions{ContentType: "image/png", Upsert: true}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(fake.files) != 1 || len(fake.deleted) != 0 {
		t.Errorf("Expected one kept file, files=%v deleted=%v", fake.files, fake.deleted)
	}
}

func TestDriveStore_PutRemovesUnsharedFile(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}, failShare: true}
	store := newTestDriveStore(t, fake)

	err := store.Put(context.Background(), "capture-1.png", []byte("png"), PutOptions{ContentType: "image/png", Upsert: true})
	if err == nil {
		t.Fatal("Expected Put to fail when sharing fails")
	}
	if len(fake.files) != 0 || len(fake.deleted) != 1 {
		t.Errorf("Expected the unshared file to be deleted, files=%v deleted=%v", fake.files, fake.deleted)
	}
	if _, ok := store.ids["capture-1.png"]; ok {
		t.Error("Unshared file id should not be cached")
	}
}

func TestEscapeDriveQuery(t *testing.T) {
	got := escapeDriveQuery(`it's a \ test`)
	if got != `it\'s a \\ test` {
		t.Errorf("Unexpected escape: %s", got)
	}
}

func TestOpen(t *testing.T) {
	store, err := Open(context.Background(), Options{Backend: "local", Directory: t.TempDir(), Bucket: "captures", BaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Errorf("Expected a LocalStore, got %T", store)
	}

	if _, err := Open(context.Background(), Options{Backend: "gdrive"}); err == nil {
		t.Error("Expected an error for gdrive without credentials")
	}
	if _, err := Open(context.Background(), Options{Backend: "s3"}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}
