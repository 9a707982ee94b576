package capture

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"geocapture/internal/service/camera"

	xdraw "golang.org/x/image/draw"
)

var errEmptyEncoding = errors.New("encoder produced no data")

// FrameBuffer is the offscreen bitmap a tick draws into. It is reused across
// ticks and must only be touched by one tick at a time.
type FrameBuffer struct {
	img *image.RGBA
}

// NewFrameBuffer allocates a width x height buffer.
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the buffer dimensions.
func (b *FrameBuffer) Size() (int, int) {
	return b.img.Rect.Dx(), b.img.Rect.Dy()
}

// Image exposes the buffer contents.
func (b *FrameBuffer) Image() *image.RGBA {
	return b.img
}

// Draw scales src to fill the buffer.
func (b *FrameBuffer) Draw(src image.Image) {
	xdraw.ApproxBiLinear.Scale(b.img, b.img.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// Encoder turns a bitmap into compressed image bytes.
type Encoder func(img image.Image) ([]byte, error)

// EncodePNG is the default Encoder.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Thumbnail scales src down so that it is at most maxWidth wide, keeping
// the aspect ratio. Images already small enough are returned as is.
func Thumbnail(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Snapshotter copies the current stream frame into a FrameBuffer and encodes it.
type Snapshotter struct {
	Encode Encoder
}

// Snapshot returns the encoded buffer. A stream that is not ready yields a
// StatusSkippedNotReady error; an empty or failed encoding yields
// StatusEncodeAborted.
func (s *Snapshotter) Snapshot(stream camera.Stream, buf *FrameBuffer) ([]byte, error) {
	if stream == nil || !stream.Ready() {
		return nil, stageErr(StageCheckReady, StatusSkippedNotReady, nil)
	}

	frame, err := stream.Frame()
	if err != nil {
		return nil, stageErr(StageDraw, StatusSkippedNotReady, err)
	}
	buf.Draw(frame)

	encode := s.Encode
	if encode == nil {
		encode = EncodePNG
	}

	data, err := encode(buf.Image())
	if err != nil {
		return nil, stageErr(StageEncode, StatusEncodeAborted, err)
	}
	if len(data) == 0 {
		return nil, stageErr(StageEncode, StatusEncodeAborted, errEmptyEncoding)
	}
	return data, nil
}
