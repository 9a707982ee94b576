package route

import (
	"net/http"
	"os"
	"path/filepath"

	"geocapture/internal/config"
	"geocapture/internal/handler"
	"geocapture/internal/logger"
	"geocapture/internal/middleware"
	"geocapture/internal/repository"
	"geocapture/internal/service/storage"

	"github.com/gorilla/mux"
)

// AuthService issues and validates sessions.
type AuthService interface {
	handler.Authenticator
	middleware.TokenValidator
}

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Auth     AuthService
	Capture  handler.CaptureController
	Metadata repository.MetadataRepository
	Viewers  handler.ViewerRegistry

	// Local is set when captures are stored on disk and served from /public/.
	Local *storage.LocalStore
}

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the router with the authentication middleware.
func SetupRoutes(deps Dependencies) http.Handler {
	cfg := deps.Config
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))
	if deps.Local != nil {
		r.HandleFunc("/public/{bucket}/{name}", handler.PublicObjectHandler(deps.Local)).Methods(http.MethodGet, http.MethodHead)
	}

	// Auth endpoints
	r.HandleFunc("/auth/signup", handler.SignUpHandler(deps.Auth, deps.Logger)).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", handler.LoginHandler(deps.Auth, deps.Logger)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler(deps.Auth, deps.Logger)).Methods(http.MethodPost)

	// Capture control
	r.HandleFunc("/api/capture/start", handler.StartCaptureHandler(deps.Capture, cfg, deps.Logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/capture/stop", handler.StopCaptureHandler(deps.Capture, deps.Logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/capture/status", handler.CaptureStatusHandler(deps.Capture)).Methods(http.MethodGet)

	// API endpoints
	r.HandleFunc("/api/captures", handler.GetCapturesHandler(deps.Metadata, deps.Logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/view", handler.ViewWebsocketHandler(deps.Viewers, deps.Logger))

	// Log endpoints
	r.HandleFunc("/logs/{level}", handler.ShowLogsHandler(deps.Logger)).Methods(http.MethodGet)
	r.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(deps.Logger)).Methods(http.MethodPost)

	// Automatic HTML handler mapping for example: /gallery -> <static>/gallery.html
	r.PathPrefix("/").HandlerFunc(dynamicHTMLHandler(cfg.StaticDirectory)).Methods(http.MethodGet)

	return middleware.AuthMiddleware(deps.Auth)(r)
}
