package model

import "time"

// ISOTimestampLayout matches JavaScript's Date.toISOString output.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z"

// CaptureRecord is a geotagged row linking a stored asset to a location.
type CaptureRecord struct {
	ID        int64   `json:"id"`
	ImageURL  string  `json:"image_url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CreatedAt string  `json:"created_at"`
}

// FormatCreatedAt renders t the way created_at is stored.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(ISOTimestampLayout)
}
