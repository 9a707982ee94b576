package handler

import (
	"context"
	"errors"
	"net/http"

	"geocapture/internal/config"
	"geocapture/internal/dto"
	"geocapture/internal/logger"
	"geocapture/internal/middleware"
	"geocapture/internal/service/camera"
	"geocapture/internal/service/capture"
)

// CaptureController starts and stops the camera session.
type CaptureController interface {
	Start(ctx context.Context, profile camera.Profile) error
	Stop() error
	Status() dto.CaptureStatus
}

// StartCaptureHandler handles POST /api/capture/start[?profile=desktop|mobile].
func StartCaptureHandler(ctrl CaptureController, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("profile")
		if name == "" {
			name = cfg.CaptureProfile
		}

		profile, err := camera.ProfileByName(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// The session outlives the request.
		if err := ctrl.Start(context.WithoutCancel(r.Context()), profile); err != nil {
			if errors.Is(err, capture.ErrAlreadyRunning) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Error("Failed to start capture: %v", err)
			http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
			return
		}

		logger.Info("Capture started by %s with %s profile", requester(r), profile.Name)
		writeJSON(w, http.StatusOK, ctrl.Status())
	}
}

// StopCaptureHandler handles POST /api/capture/stop. Stopping twice is fine.
func StopCaptureHandler(ctrl CaptureController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Stop(); err != nil {
			logger.Error("Failed to stop capture: %v", err)
		}
		logger.Info("Capture stopped by %s", requester(r))
		writeJSON(w, http.StatusOK, ctrl.Status())
	}
}

// CaptureStatusHandler handles GET /api/capture/status.
func CaptureStatusHandler(ctrl CaptureController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Status())
	}
}

// requester names the signed-in user behind r for audit logs.
func requester(r *http.Request) string {
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		return "user " + session.UserID
	}
	return "anonymous"
}
