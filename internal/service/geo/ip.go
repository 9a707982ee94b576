package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IPLocator approximates the position from the public IP address using an
// ip-api.com compatible JSON endpoint. It cannot honor HighAccuracy.
type IPLocator struct {
	URL    string
	Client *http.Client
}

// NewIPLocator creates an IPLocator for url.
func NewIPLocator(url string) *IPLocator {
	return &IPLocator{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context, _ LocateOptions) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Position{}, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return Position{}, fmt.Errorf("%w: lookup returned %s", ErrPermissionDenied, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return Position{}, fmt.Errorf("%w: lookup returned %s", ErrPositionUnavailable, resp.Status)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Position{}, fmt.Errorf("%w: bad lookup response: %v", ErrPositionUnavailable, err)
	}
	if body.Status != "" && !strings.EqualFold(body.Status, "success") {
		return Position{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, body.Message)
	}

	return Position{Latitude: body.Lat, Longitude: body.Lon, Timestamp: time.Now()}, nil
}
