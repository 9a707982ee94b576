package dto

// CaptureStatus describes the live camera session, if any.
type CaptureStatus struct {
	Running   bool   `json:"running"`
	Profile   string `json:"profile,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Ticks     int64  `json:"ticks"`
	Recorded  int64  `json:"recorded"`
	Skipped   int64  `json:"skipped"`
	Failed    int64  `json:"failed"`
	StartedAt string `json:"startedAt,omitempty"`
}
