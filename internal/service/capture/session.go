package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"geocapture/internal/dto"
	"geocapture/internal/logger"
	"geocapture/internal/model"
	"geocapture/internal/service/camera"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is live.
	ErrAlreadyRunning = errors.New("capture session already running")
	// ErrNoDimensions means the stream never reported its resolution.
	ErrNoDimensions = errors.New("stream dimensions not available")
)

const dimensionPoll = 20 * time.Millisecond

// Options tunes the capture loop.
type Options struct {
	Interval         time.Duration
	TickTimeout      time.Duration
	DimensionTimeout time.Duration
	// OnOutcome, if set, is called once per tick from the tick's goroutine.
	OnOutcome func(Outcome)
}

// session is the state of one live camera session.
type session struct {
	profile   camera.Profile
	stream    camera.Stream
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	width  int
	height int

	inFlight atomic.Bool
	ticks    sync.WaitGroup
	release  sync.Once
	closeErr error
}

func (s *session) close() error {
	s.release.Do(func() {
		s.closeErr = s.stream.Close()
	})
	return s.closeErr
}

// Service owns at most one camera session and drives its capture loop.
type Service struct {
	device   camera.Device
	pipeline *Pipeline
	opts     Options
	logger   *logger.Logger

	mu      sync.Mutex
	current *session

	tickSeq  atomic.Int64
	recorded atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewService(device camera.Device, pipeline *Pipeline, opts Options, logger *logger.Logger) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 30 * time.Second
	}
	if opts.DimensionTimeout <= 0 {
		opts.DimensionTimeout = 10 * time.Second
	}

	return &Service{
		device:   device,
		pipeline: pipeline,
		opts:     opts,
		logger:   logger,
	}
}

// Start acquires the camera with the requested profile and starts the
// capture loop. The first tick fires one interval after the stream reports
// its dimensions.
func (s *Service) Start(ctx context.Context, profile camera.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrAlreadyRunning
	}

	stream, err := s.device.Open(ctx, profile)
	if err != nil {
		s.logger.Error("Error accessing camera: %v", err)
		return fmt.Errorf("failed to open camera: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		profile:   profile,
		stream:    stream,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.current = sess

	go s.loop(loopCtx, sess)

	s.logger.Info("Capture started with profile %s", profile)
	return nil
}

// Stop cancels the timer, waits for an in-flight tick and releases the
// stream. Stopping an idle service does nothing.
func (s *Service) Stop() error {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}

	sess.cancel()
	<-sess.done

	if err := sess.close(); err != nil {
		s.logger.Warning("Error releasing camera: %v", err)
		return fmt.Errorf("failed to release camera: %w", err)
	}

	s.logger.Info("Capture stopped")
	return nil
}

// Running reports whether a session is live.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Status snapshots the session and the lifetime tick counters.
func (s *Service) Status() dto.CaptureStatus {
	status := dto.CaptureStatus{
		Ticks:    s.tickSeq.Load(),
		Recorded: s.recorded.Load(),
		Skipped:  s.skipped.Load(),
		Failed:   s.failed.Load(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.current; sess != nil {
		status.Running = true
		status.Profile = sess.profile.Name
		status.Width = sess.width
		status.Height = sess.height
		status.StartedAt = model.FormatCreatedAt(sess.startedAt)
	}
	return status
}

func (s *Service) loop(ctx context.Context, sess *session) {
	defer close(sess.done)

	width, height, err := waitForDimensions(ctx, sess.stream, s.opts.DimensionTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Camera never reported its resolution: %v", err)
		s.abandon(sess)
		return
	}

	s.mu.Lock()
	sess.width, sess.height = width, height
	s.mu.Unlock()

	s.logger.Info("Camera resolution %dx%d, capturing every %v", width, height, s.opts.Interval)

	buf := NewFrameBuffer(width, height)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sess.ticks.Wait()
			return
		case <-ticker.C:
			s.fire(sess, buf)
		}
	}
}

// abandon ends a session from inside its own loop.
func (s *Service) abandon(sess *session) {
	s.mu.Lock()
	if s.current == sess {
		s.current = nil
	}
	s.mu.Unlock()

	sess.cancel()
	if err := sess.close(); err != nil {
		s.logger.Warning("Error releasing camera: %v", err)
	}
}

func (s *Service) fire(sess *session, buf *FrameBuffer) {
	n := s.tickSeq.Add(1)

	if !sess.inFlight.CompareAndSwap(false, true) {
		s.report(Outcome{Tick: n, Stage: StageCheckReady, Status: StatusSkippedBusy, Started: time.Now()})
		return
	}

	sess.ticks.Add(1)
	go func() {
		defer sess.ticks.Done()
		defer sess.inFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.TickTimeout)
		defer cancel()

		s.report(s.pipeline.Tick(ctx, n, sess.stream, buf))
	}()
}

func (s *Service) report(out Outcome) {
	switch {
	case out.Status == StatusRecorded:
		s.recorded.Add(1)
		s.logger.Info("Metadata saved for %s (%.6f, %.6f)", out.Filename, out.Record.Latitude, out.Record.Longitude)
	case out.Status.Skipped(), out.Status == StatusEncodeAborted:
		s.skipped.Add(1)
	case out.Status == StatusUploadFailed:
		s.failed.Add(1)
		s.logger.Error("Upload error for %s: %v", out.Filename, out.Err)
	case out.Status == StatusURLFailed:
		s.failed.Add(1)
		s.logger.Error("Error getting public URL for %s: %v", out.Filename, out.Err)
	case out.Status == StatusLocateFailed:
		s.failed.Add(1)
		s.logger.Warning("Geolocation error for %s: %v", out.Filename, out.Err)
	case out.Status == StatusRecordFailed:
		s.failed.Add(1)
		s.logger.Error("Database insert error for %s: %v", out.Filename, out.Err)
	}

	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(out)
	}
}

func waitForDimensions(ctx context.Context, stream camera.Stream, timeout time.Duration) (int, int, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(dimensionPoll)
	defer poll.Stop()

	for {
		if w, h, ok := stream.Dimensions(); ok && w > 0 && h > 0 {
			return w, h, nil
		}

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-deadline.C:
			return 0, 0, ErrNoDimensions
		case <-poll.C:
		}
	}
}
