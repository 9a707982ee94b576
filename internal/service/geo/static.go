package geo

import (
	"context"
	"time"
)

// StaticLocator always reports the same position, for fixed installations.
type StaticLocator struct {
	Latitude  float64
	Longitude float64
}

func (s StaticLocator) Locate(ctx context.Context, _ LocateOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Latitude: s.Latitude, Longitude: s.Longitude, Timestamp: time.Now()}, nil
}

// NoneLocator reports that geolocation is not available.
type NoneLocator struct{}

func (NoneLocator) Locate(context.Context, LocateOptions) (Position, error) {
	return Position{}, ErrUnsupported
}
