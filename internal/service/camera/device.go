package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnavailable is returned when no camera can be opened.
	ErrUnavailable = errors.New("camera unavailable")
	// ErrNotReady is returned by Frame before the stream has produced data.
	ErrNotReady = errors.New("stream not ready")
	// ErrClosed is returned by Frame after Close.
	ErrClosed = errors.New("stream closed")
)

// Device acquires video streams.
type Device interface {
	Open(ctx context.Context, profile Profile) (Stream, error)
}

// Stream is a live video feed. Its tracks are released by Close; Close is
// safe to call more than once.
type Stream interface {
	// Ready reports whether at least one current frame is available.
	Ready() bool
	// Dimensions returns the negotiated resolution once it is known.
	Dimensions() (width, height int, ok bool)
	// Frame returns the current frame. The image must not be retained past
	// the next call.
	Frame() (image.Image, error)
	Close() error
}
