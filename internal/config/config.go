// Package config provides configuration helpers for go-camview commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the camview server.
const (
	DefaultPort           = "8090"
	DefaultTickRate       = 60
	DefaultTransitionSecs = 0.5
	DefaultCameraDevice   = 0
)

// Port returns the server port from CAMVIEW_PORT or the default.
func Port() string {
	if p := os.Getenv("CAMVIEW_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// TickRate returns the render tick rate (Hz) from CAMVIEW_TICK_RATE or the
// default. Invalid or non-positive values fall back to the default.
func TickRate() int {
	if v := os.Getenv("CAMVIEW_TICK_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultTickRate
}

// TickInterval returns the tick period derived from TickRate.
func TickInterval() time.Duration {
	return time.Second / time.Duration(TickRate())
}

// DefaultTransition returns the default camera transition duration from
// CAMVIEW_TRANSITION_SECS or the default.
func DefaultTransition() time.Duration {
	if v := os.Getenv("CAMVIEW_TRANSITION_SECS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Duration(DefaultTransitionSecs * float64(time.Second))
}

// CameraDevice returns the capture device id from CAMVIEW_CAMERA or the
// default.
func CameraDevice() int {
	if v := os.Getenv("CAMVIEW_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return DefaultCameraDevice
}

// LogLevel returns the log level from CAMVIEW_LOG_LEVEL or "info".
func LogLevel() string {
	if v := os.Getenv("CAMVIEW_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
