package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"geocapture/internal/config"
	"geocapture/internal/dto"
	"geocapture/internal/logger"
	"geocapture/internal/repository/sqlite"
	"geocapture/internal/route"
	"geocapture/internal/service/auth"
	"geocapture/internal/service/camera"
	"geocapture/internal/service/capture"
	"geocapture/internal/service/geo"
	"geocapture/internal/service/storage"
	"geocapture/internal/service/websocket"
)

const (
	shutdownTimeout   = 10 * time.Second
	sessionPurgeEvery = time.Hour
	readHeaderTimeout = 10 * time.Second
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	hub     *websocket.HubService
	capture *capture.Service
	auth    *auth.Service
	server  *http.Server
}

// NewApp builds every service from cfg. Nothing runs until Run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storageOptions(cfg))
	if err != nil {
		db.Close()
		return nil, err
	}
	// Local objects are served by the router under /public/.
	local, _ := store.(*storage.LocalStore)

	locator, err := geo.NewLocator(geo.ProviderConfig{
		Provider:  cfg.GeoProvider,
		Latitude:  cfg.GeoLatitude,
		Longitude: cfg.GeoLongitude,
		IPURL:     cfg.GeoIPURL,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	metadata := sqlite.NewMetadataRepository(db)
	hub := websocket.NewHubService(log)

	pipeline := &capture.Pipeline{
		Snapshotter: &capture.Snapshotter{Encode: capture.EncodePNG},
		Uploader: &capture.Uploader{
			Store:       store,
			Namer:       capture.NewNamer(),
			Presenter:   hub,
			ContentType: "image/png",
		},
		Annotator: &capture.Annotator{
			Locator: locator,
			Records: metadata,
			Timeout: cfg.GeoTimeout,
		},
	}

	captureSvc := capture.NewService(newDevice(cfg), pipeline, capture.Options{
		Interval:         cfg.CaptureInterval,
		TickTimeout:      cfg.TickTimeout,
		DimensionTimeout: cfg.DimensionTimeout,
		OnOutcome:        publishOutcome(hub),
	}, log)

	authSvc := auth.NewService(sqlite.NewUserRepository(db), sqlite.NewSessionRepository(db), cfg.SessionTTL, log)

	router := route.SetupRoutes(route.Dependencies{
		Config:   cfg,
		Logger:   log,
		Auth:     authSvc,
		Capture:  captureSvc,
		Metadata: metadata,
		Viewers:  hub,
		Local:    local,
	})

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		hub:     hub,
		capture: captureSvc,
		auth:    authSvc,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then stops capture and shuts the
// server down.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)
	go a.purgeSessions(ctx)

	if a.config.CaptureAutostart {
		a.autostart(ctx)
	}

	fmt.Printf("📷 Geo Capture Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🗄️  Storage: %s (%s)\n", a.config.StorageBackend, a.config.StorageBucket)
	fmt.Printf("🌍 Geolocation: %s\n", a.config.GeoProvider)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		a.capture.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	if err := a.capture.Stop(); err != nil {
		a.logger.Error("Error stopping capture: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// autostart begins capturing with the configured profile. A camera that
// cannot be opened is logged and the server keeps running without capture.
func (a *App) autostart(ctx context.Context) {
	profile, err := camera.ProfileByName(a.config.CaptureProfile)
	if err != nil {
		a.logger.Error("Invalid CAPTURE_PROFILE: %v", err)
		return
	}
	if err := a.capture.Start(ctx, profile); err != nil {
		a.logger.Warning("Capture not started: %v", err)
	}
}

func (a *App) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.auth.PurgeExpired(ctx)
			if err != nil {
				a.logger.Error("Error purging expired sessions: %v", err)
				continue
			}
			if removed > 0 {
				a.logger.Info("Purged %d expired sessions", removed)
			}
		}
	}
}

func publishOutcome(hub *websocket.HubService) func(capture.Outcome) {
	return func(out capture.Outcome) {
		hub.Publish(dto.ViewerEvent{
			Type:     "outcome",
			Tick:     out.Tick,
			Stage:    string(out.Stage),
			Status:   string(out.Status),
			Filename: out.Filename,
			URL:      out.URL,
		})
	}
}
