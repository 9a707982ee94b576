package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"
)

// PatternDevice produces a synthetic moving test pattern. It negotiates the
// requested profile resolution exactly.
type PatternDevice struct {
	// FrameInterval is how often a new pattern frame is rendered.
	FrameInterval time.Duration
	// Warmup delays readiness, like a real camera reporting its first frame late.
	Warmup time.Duration
}

// NewPatternDevice creates a PatternDevice rendering at ~10fps.
func NewPatternDevice() *PatternDevice {
	return &PatternDevice{FrameInterval: 100 * time.Millisecond}
}

// Open starts rendering frames for profile.
func (d *PatternDevice) Open(ctx context.Context, profile Profile) (Stream, error) {
	if profile.Width <= 0 || profile.Height <= 0 {
		return nil, ErrUnavailable
	}

	interval := d.FrameInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	s := &patternStream{
		width:  profile.Width,
		height: profile.Height,
		frame:  image.NewRGBA(image.Rect(0, 0, profile.Width, profile.Height)),
		done:   make(chan struct{}),
	}

	go s.run(d.Warmup, interval)
	return s, nil
}

type patternStream struct {
	width, height int

	mu     sync.Mutex
	frame  *image.RGBA
	seq    int
	ready  atomic.Bool
	closed atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

func (s *patternStream) run(warmup, interval time.Duration) {
	if warmup > 0 {
		select {
		case <-time.After(warmup):
		case <-s.done:
			return
		}
	}

	s.render()
	s.ready.Store(true)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.render()
		case <-s.done:
			return
		}
	}
}

// render draws diagonal color bands shifted by the frame sequence number.
func (s *patternStream) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			v := uint8((x + y + s.seq*8) % 256)
			s.frame.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: uint8(s.seq % 256), A: 255})
		}
	}
}

func (s *patternStream) Ready() bool {
	return s.ready.Load() && !s.closed.Load()
}

func (s *patternStream) Dimensions() (int, int, bool) {
	if !s.ready.Load() {
		return 0, 0, false
	}
	return s.width, s.height, true
}

func (s *patternStream) Frame() (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := image.NewRGBA(s.frame.Bounds())
	copy(out.Pix, s.frame.Pix)
	return out, nil
}

func (s *patternStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}
