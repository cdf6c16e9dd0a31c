// Package camera implements the animated camera transition engine.
// Movements are queued and played in order: every tick the engine maps
// elapsed time (or a rendered-frame count) to a progress fraction, eases it
// through the movement's interpolation style, and emits the interpolated
// pose between the previous and the next queued endpoint.
package camera

import (
	"math"
	"strings"
	"time"

	"github.com/viewnav/go-camview/pkg/geom"
)

// Style selects the easing curve used to map time progress to spatial
// progress along a movement.
type Style uint8

const (
	// StyleRising starts slow and finishes fast.
	StyleRising Style = iota
	// StyleDeclining starts fast and finishes slow.
	StyleDeclining
	// StyleFull is plain linear interpolation.
	StyleFull
	// StyleWave eases in and out. It is also the fallback for
	// unrecognized styles.
	StyleWave
)

// String returns the lowercase style name.
func (s Style) String() string {
	switch s {
	case StyleRising:
		return "rising"
	case StyleDeclining:
		return "declining"
	case StyleFull:
		return "full"
	default:
		return "wave"
	}
}

// StyleFromString parses a style name. Unknown names map to StyleWave.
func StyleFromString(name string) Style {
	switch strings.ToLower(name) {
	case "rising":
		return StyleRising
	case "declining":
		return StyleDeclining
	case "full", "linear":
		return StyleFull
	default:
		return StyleWave
	}
}

// Fraction maps a time fraction in [0,1] to a space fraction in [0,1].
// Fraction(0) == 0 and Fraction(1) == 1 for every style, so endpoints are
// reproduced exactly. Callers clamp t to 1 once a movement's duration has
// elapsed.
func (s Style) Fraction(t float64) float64 {
	switch s {
	case StyleRising:
		return 1 - math.Cos(t*math.Pi/2)
	case StyleDeclining:
		return -math.Cos(t*math.Pi/2 + math.Pi/2)
	case StyleFull:
		return t
	default:
		return 0.5 * (1 - math.Cos(t*math.Pi))
	}
}

// Movement describes one requested camera endpoint: where the camera should
// end up, how long getting there takes, and how progress is eased.
// A Movement is immutable once enqueued.
type Movement struct {
	Eye      geom.Vec3
	Focus    geom.Vec3
	Up       geom.Vec3
	Duration time.Duration
	Style    Style
}

// Target returns the movement's endpoint as a pose.
func (m Movement) Target() geom.Pose {
	return geom.Pose{Eye: m.Eye, Focus: m.Focus, Up: m.Up}
}
