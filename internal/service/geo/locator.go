// Package geo provides one-shot device position reads.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupported is returned when no position source is configured.
	ErrUnsupported = errors.New("geolocation unsupported")
	// ErrPermissionDenied is returned when the source refuses to report a position.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrPositionUnavailable is returned when the source could not determine a position.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrTimeout is returned when no position arrived within the timeout.
	ErrTimeout = errors.New("geolocation timeout")
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// LocateOptions mirror the single-shot read options of a device API.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// Locator reads the current position once.
type Locator interface {
	Locate(ctx context.Context, opts LocateOptions) (Position, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, opts LocateOptions) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context, opts LocateOptions) (Position, error) {
	return f(ctx, opts)
}

// Locate calls l with opts.Timeout applied as a deadline. A deadline hit is
// reported as ErrTimeout.
func Locate(ctx context.Context, l Locator, opts LocateOptions) (Position, error) {
	if l == nil {
		return Position{}, ErrUnsupported
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := l.Locate(ctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w after %v: %v", ErrTimeout, opts.Timeout, err)
		}
		return Position{}, err
	}
	if err := Validate(pos); err != nil {
		return Position{}, err
	}
	return pos, nil
}

// Validate rejects coordinates outside the WGS84 range.
func Validate(pos Position) error {
	if pos.Latitude < -90 || pos.Latitude > 90 || pos.Longitude < -180 || pos.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrPositionUnavailable, pos.Latitude, pos.Longitude)
	}
	return nil
}
