package capture

import (
	"context"
	"time"

	"geocapture/internal/model"
	"geocapture/internal/service/geo"
)

// RecordStore persists capture metadata records.
type RecordStore interface {
	Insert(ctx context.Context, rec *model.CaptureRecord) (int64, error)
}

// Annotator geotags a stored asset.
type Annotator struct {
	Locator geo.Locator
	Records RecordStore
	Timeout time.Duration
	Now     func() time.Time
}

// Annotate reads the position once and inserts a record for url. No record
// is written when the position read fails.
func (a *Annotator) Annotate(ctx context.Context, url string) (*model.CaptureRecord, error) {
	pos, err := geo.Locate(ctx, a.Locator, geo.LocateOptions{HighAccuracy: true, Timeout: a.Timeout})
	if err != nil {
		return nil, stageErr(StageLocate, StatusLocateFailed, err)
	}

	now := a.Now
	if now == nil {
		now = time.Now
	}

	rec := &model.CaptureRecord{
		ImageURL:  url,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		CreatedAt: model.FormatCreatedAt(now()),
	}
	if _, err := a.Records.Insert(ctx, rec); err != nil {
		return nil, stageErr(StageRecord, StatusRecordFailed, err)
	}
	return rec, nil
}
