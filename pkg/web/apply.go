package web

import (
	"time"

	"github.com/viewnav/go-camview/internal/log"
	"github.com/viewnav/go-camview/pkg/camera"
	"github.com/viewnav/go-camview/pkg/frames"
	"github.com/viewnav/go-camview/pkg/protocol"
)

// buildMovement resolves a placement's coordinate frames and converts it to
// an engine movement. Each point may carry its own source frame; points
// without one use the request's target frame, and bare points are assumed
// to be in the fixed working frame already.
func buildMovement(reg *frames.Registry, req protocol.PlacementRequest, targetFrame string) camera.Movement {
	eyeFrame := req.Eye.Frame
	if eyeFrame == "" {
		eyeFrame = targetFrame
	}
	focusFrame := req.Focus.Frame
	if focusFrame == "" {
		focusFrame = targetFrame
	}
	upFrame := req.Up.Frame
	if upFrame == "" {
		upFrame = targetFrame
	}

	return camera.Movement{
		Eye:      reg.ToFixed(eyeFrame, req.Eye.Point),
		Focus:    reg.ToFixed(focusFrame, req.Focus.Point),
		Up:       reg.DirectionToFixed(upFrame, req.Up.Vector),
		Duration: time.Duration(req.TimeFromStart * float64(time.Second)),
		Style:    camera.StyleFromString(req.Style),
	}
}

// applyPlacement validates and enqueues a single placement. It reports
// whether the movement was queued.
func (s *Server) applyPlacement(req protocol.PlacementRequest) bool {
	if req.TimeFromStart < 0 {
		log.Warn("placement rejected: negative transition duration",
			"time_from_start", req.TimeFromStart)
		return false
	}

	s.engine.Enqueue(buildMovement(s.registry, req, req.TargetFrame))
	return true
}

// applyTrajectory validates and enqueues a trajectory. Entries with a
// negative duration are skipped with a warning; the rest still play. An
// empty or fully-invalid trajectory starts nothing. Returns how many
// entries were queued and how many skipped.
func (s *Server) applyTrajectory(req protocol.TrajectoryRequest) (queued, skipped int) {
	if len(req.Trajectory) == 0 {
		log.Warn("empty trajectory request ignored")
		return 0, 0
	}

	if req.RenderFrameByFrame {
		s.engine.SetFrameByFrame(int(req.FramesPerSecond))
	}

	for i, entry := range req.Trajectory {
		if entry.TimeFromStart < 0 {
			log.Warn("skipping trajectory entry: negative transition duration",
				"entry", i, "time_from_start", entry.TimeFromStart)
			skipped++
			continue
		}
		target := entry.TargetFrame
		if target == "" {
			target = req.TargetFrame
		}
		s.engine.Enqueue(buildMovement(s.registry, entry, target))
		queued++
	}
	return queued, skipped
}

// applyPause forwards a pause request; non-positive pauses are no-ops.
func (s *Server) applyPause(req protocol.PauseRequest) bool {
	if req.Seconds <= 0 {
		return false
	}
	s.engine.PauseFor(time.Duration(req.Seconds * float64(time.Second)))
	return true
}
