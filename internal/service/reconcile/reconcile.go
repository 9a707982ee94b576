// Package reconcile finds stored captures that never got a metadata record,
// for example because geolocation failed on that tick.
package reconcile

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"geocapture/internal/logger"
	"geocapture/internal/service/storage"
)

// URLIndex lists every image URL that has a metadata record.
type URLIndex interface {
	ImageURLs(ctx context.Context) (map[string]struct{}, error)
}

// Unindexed returns the capture objects no metadata record points at.
// Only objects matching prefix are considered. Records and objects are
// matched on objectKey, so a changed host or base URL does not orphan
// captures recorded before the change.
func Unindexed(ctx context.Context, store storage.ObjectStore, index URLIndex, prefix string) ([]storage.ObjectInfo, error) {
	urls, err := index.ImageURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded urls: %w", err)
	}

	keys := make(map[string]struct{}, len(urls))
	for u := range urls {
		if key := objectKey(u); key != "" {
			keys[key] = struct{}{}
		}
	}

	objects, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored objects: %w", err)
	}

	var orphans []storage.ObjectInfo
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Name, prefix) {
			continue
		}

		public, err := store.PublicURL(ctx, obj.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve url for %s: %w", obj.Name, err)
		}
		if _, ok := keys[objectKey(public)]; !ok {
			orphans = append(orphans, obj)
		}
	}
	return orphans, nil
}

// objectKey identifies the stored object a public URL points at: the Drive
// file id when the URL carries one, otherwise the last path segment.
// Unparseable URLs yield "".
func objectKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("id"); id != "" {
		return "id:" + id
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return "name:" + base
}

// Prune deletes objects and returns how many were removed. Failures are
// logged and skipped.
func Prune(ctx context.Context, store storage.ObjectStore, objects []storage.ObjectInfo, log *logger.Logger) int {
	removed := 0
	for _, obj := range objects {
		if err := store.Delete(ctx, obj.Name); err != nil {
			log.Error("Failed to delete %s: %v", obj.Name, err)
			continue
		}
		removed++
	}
	return removed
}
