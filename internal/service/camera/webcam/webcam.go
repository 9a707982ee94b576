// Package webcam opens local cameras through OpenCV.
package webcam

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"geocapture/internal/service/camera"

	"gocv.io/x/gocv"
)

// Device opens a gocv VideoCapture. ID and RearID are device indexes or
// paths/URLs; RearID is used for profiles that prefer the rear camera.
type Device struct {
	ID     string
	RearID string
}

// New creates a webcam Device.
func New(id, rearID string) *Device {
	return &Device{ID: id, RearID: rearID}
}

// Open requests the profile resolution and starts reading frames. The
// negotiated resolution is read back from the first decoded frame.
func (d *Device) Open(ctx context.Context, profile camera.Profile) (camera.Stream, error) {
	id := d.ID
	if profile.Facing == camera.FacingEnvironment && d.RearID != "" {
		id = d.RearID
	}

	vc, err := gocv.OpenVideoCapture(deviceArg(id))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", camera.ErrUnavailable, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %s did not open", camera.ErrUnavailable, id)
	}

	if profile.Width > 0 && profile.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(profile.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(profile.Height))
	}

	return newStream(vc, closeWait), nil
}

// closeWait bounds how long Close waits for a Read stuck on a stalled source.
const closeWait = 2 * time.Second

// frameReader is the part of gocv.VideoCapture the reader goroutine uses.
type frameReader interface {
	Read(m *gocv.Mat) bool
	Close() error
}

func newStream(vc frameReader, wait time.Duration) *stream {
	s := &stream{
		vc:        vc,
		scratch:   gocv.NewMat(),
		latest:    gocv.NewMat(),
		closeWait: wait,
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// deviceArg turns a numeric ID into a device index for OpenVideoCapture.
func deviceArg(id string) interface{} {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

type stream struct {
	vc         frameReader
	scratch    gocv.Mat
	closeWait  time.Duration
	releaseErr error

	mu     sync.Mutex
	latest gocv.Mat
	width  int
	height int
	ready  bool
	closed bool

	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

// readLoop keeps the latest decoded frame. It owns vc and scratch and
// releases both when it returns.
func (s *stream) readLoop() {
	defer close(s.exited)
	defer func() {
		s.scratch.Close()
		s.releaseErr = s.vc.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if ok := s.vc.Read(&s.scratch); !ok || s.scratch.Empty() {
			// The device has no frame yet or dropped one.
			select {
			case <-s.done:
				return
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.scratch.CopyTo(&s.latest)
		s.width = s.latest.Cols()
		s.height = s.latest.Rows()
		s.ready = true
		s.mu.Unlock()
	}
}

func (s *stream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready && !s.closed
}

func (s *stream) Dimensions() (int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, 0, false
	}
	return s.width, s.height, true
}

func (s *stream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, camera.ErrClosed
	}
	if !s.ready || s.latest.Empty() {
		return nil, camera.ErrNotReady
	}
	return s.latest.ToImage()
}

// Close stops the reader and releases the device. When a Read is stuck it
// returns after closeWait and the reader releases the device once Read
// comes back.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.closed = true
		s.latest.Close()
		s.mu.Unlock()

		timer := time.NewTimer(s.closeWait)
		defer timer.Stop()

		select {
		case <-s.exited:
			err = s.releaseErr
		case <-timer.C:
			err = fmt.Errorf("camera read did not return within %s, releasing in background", s.closeWait)
		}
	})
	return err
}
