package app

import (
	"strings"

	"geocapture/internal/config"
	"geocapture/internal/service/camera"
	"geocapture/internal/service/camera/webcam"
	"geocapture/internal/service/storage"
)

func storageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Backend:     cfg.StorageBackend,
		Directory:   cfg.StorageDirectory,
		Bucket:      cfg.StorageBucket,
		BaseURL:     cfg.PublicBaseURL,
		Credentials: cfg.DriveCredentials,
		FolderID:    cfg.DriveFolderID,
	}
}

// newDevice maps CAMERA_DEVICE to a camera. "synthetic" renders a test pattern.
func newDevice(cfg *config.Config) camera.Device {
	if strings.EqualFold(cfg.CameraDevice, "synthetic") {
		return camera.NewPatternDevice()
	}
	return webcam.New(cfg.CameraDevice, cfg.CameraRearDevice)
}
