package capture

import (
	"context"

	"geocapture/internal/service/storage"
)

// Presenter shows local, never persisted feedback for a capture.
type Presenter interface {
	Flash()
	Preview(filename string, image []byte)
}

type noopPresenter struct{}

func (noopPresenter) Flash()                 {}
func (noopPresenter) Preview(string, []byte) {}

// Uploader names an encoded capture, stores it and resolves its public URL.
type Uploader struct {
	Store       storage.ObjectStore
	Namer       *Namer
	Presenter   Presenter
	ContentType string
}

// Upload shows the flash and preview, then upserts data. Presentation
// happens before the store is called, so it is shown even if the upload fails.
func (u *Uploader) Upload(ctx context.Context, data, thumbnail []byte) (filename, url string, err error) {
	filename, _ = u.Namer.Next()

	presenter := u.Presenter
	if presenter == nil {
		presenter = noopPresenter{}
	}
	presenter.Flash()
	if len(thumbnail) > 0 {
		presenter.Preview(filename, thumbnail)
	}

	contentType := u.ContentType
	if contentType == "" {
		contentType = "image/png"
	}

	if err := u.Store.Put(ctx, filename, data, storage.PutOptions{ContentType: contentType, Upsert: true}); err != nil {
		return filename, "", stageErr(StageUpload, StatusUploadFailed, err)
	}

	url, err = u.Store.PublicURL(ctx, filename)
	if err != nil {
		return filename, "", stageErr(StageResolveURL, StatusURLFailed, err)
	}
	return filename, url, nil
}
