package geo

import (
	"fmt"
	"strings"
)

// ProviderConfig selects and parameterizes a Locator.
type ProviderConfig struct {
	Provider  string // static | ip | none
	Latitude  float64
	Longitude float64
	IPURL     string
}

// NewLocator builds the configured Locator.
func NewLocator(cfg ProviderConfig) (Locator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return NoneLocator{}, nil
	case "static":
		pos := Position{Latitude: cfg.Latitude, Longitude: cfg.Longitude}
		if err := Validate(pos); err != nil {
			return nil, err
		}
		return StaticLocator{Latitude: cfg.Latitude, Longitude: cfg.Longitude}, nil
	case "ip":
		if cfg.IPURL == "" {
			return nil, fmt.Errorf("ip geolocation requires a lookup url")
		}
		return NewIPLocator(cfg.IPURL), nil
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", cfg.Provider)
	}
}
