package capture

import (
	"fmt"
	"sync"
	"time"
)

// Namer hands out capture filenames from a strictly increasing millisecond
// timestamp, so names are unique within the process without coordination.
type Namer struct {
	Prefix    string
	Extension string
	Now       func() time.Time

	mu   sync.Mutex
	last int64
}

// NewNamer creates a Namer producing "capture-<ms>.png".
func NewNamer() *Namer {
	return &Namer{Prefix: "capture-", Extension: ".png", Now: time.Now}
}

// Next returns a new filename and the timestamp it encodes.
func (n *Namer) Next() (string, time.Time) {
	now := n.Now
	if now == nil {
		now = time.Now
	}

	n.mu.Lock()
	ms := now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	n.mu.Unlock()

	return fmt.Sprintf("%s%d%s", n.Prefix, ms, n.Extension), time.UnixMilli(ms)
}
