package capture

import (
	"context"
	"time"

	"geocapture/internal/service/camera"
)

const defaultThumbnailWidth = 160

// Pipeline runs the stages of one tick: snapshot, upload and annotate.
type Pipeline struct {
	Snapshotter    *Snapshotter
	Uploader       *Uploader
	Annotator      *Annotator
	ThumbnailWidth int
	Now            func() time.Time
}

// Tick captures one frame from stream into buf and produces exactly one
// Outcome. Callers must not run two ticks against the same buffer at once.
func (p *Pipeline) Tick(ctx context.Context, n int64, stream camera.Stream, buf *FrameBuffer) (out Outcome) {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	out = Outcome{Tick: n, Started: now()}
	defer func() { out.Duration = now().Sub(out.Started) }()

	data, err := p.Snapshotter.Snapshot(stream, buf)
	if err != nil {
		out.apply(err)
		return out
	}

	thumbnail := p.thumbnail(buf)

	filename, url, err := p.Uploader.Upload(ctx, data, thumbnail)
	out.Filename = filename
	if err != nil {
		out.apply(err)
		return out
	}
	out.URL = url

	rec, err := p.Annotator.Annotate(ctx, url)
	if err != nil {
		out.apply(err)
		return out
	}

	out.Stage = StageRecord
	out.Status = StatusRecorded
	out.Record = rec
	return out
}

// thumbnail is best effort; a failed encode only drops the preview.
func (p *Pipeline) thumbnail(buf *FrameBuffer) []byte {
	width := p.ThumbnailWidth
	if width == 0 {
		width = defaultThumbnailWidth
	}
	if width < 0 {
		return nil
	}

	data, err := EncodePNG(Thumbnail(buf.Image(), width))
	if err != nil {
		return nil
	}
	return data
}
