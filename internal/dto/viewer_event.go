package dto

// ViewerEvent is pushed to WebSocket viewers. Type is one of "flash",
// "preview" or "outcome".
type ViewerEvent struct {
	Type     string `json:"type"`
	Image    string `json:"image,omitempty"` // base64 PNG thumbnail
	Filename string `json:"filename,omitempty"`
	Status   string `json:"status,omitempty"`
	Stage    string `json:"stage,omitempty"`
	URL      string `json:"url,omitempty"`
	Tick     int64  `json:"tick,omitempty"`
}
