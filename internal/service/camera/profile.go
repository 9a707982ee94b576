// Package camera defines capture profiles and the device/stream contracts
// the capture loop consumes.
package camera

import (
	"fmt"
	"strings"
)

// Facing is the preferred camera direction.
type Facing string

const (
	FacingAny         Facing = ""
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment" // rear camera
)

// Profile is a requested resolution and facing mode. It is a request only:
// the stream reports what was actually negotiated.
type Profile struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Facing Facing `json:"facing,omitempty"`
}

// Built-in profiles.
var (
	DesktopProfile = Profile{Name: "desktop", Width: 1280, Height: 720, Facing: FacingAny}
	MobileProfile  = Profile{Name: "mobile", Width: 640, Height: 480, Facing: FacingEnvironment}
)

// ProfileByName resolves a profile name. An empty name selects DesktopProfile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DesktopProfile.Name:
		return DesktopProfile, nil
	case MobileProfile.Name:
		return MobileProfile, nil
	default:
		return Profile{}, fmt.Errorf("unknown capture profile %q", name)
	}
}

func (p Profile) String() string {
	if p.Facing == FacingAny {
		return fmt.Sprintf("%s %dx%d", p.Name, p.Width, p.Height)
	}
	return fmt.Sprintf("%s %dx%d (%s)", p.Name, p.Width, p.Height, p.Facing)
}
