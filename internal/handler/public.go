package handler

import (
	"net/http"
	"os"

	"geocapture/internal/service/storage"

	"github.com/gorilla/mux"
)

// PublicObjectHandler serves GET /public/{bucket}/{name} from the local store.
func PublicObjectHandler(store *storage.LocalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if vars["bucket"] != store.Bucket() {
			http.NotFound(w, r)
			return
		}

		path, err := store.Path(vars["name"])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFile(w, r, path)
	}
}
