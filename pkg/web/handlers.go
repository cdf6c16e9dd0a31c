package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pion/webrtc/v3"

	"github.com/viewnav/go-camview/pkg/geom"
	"github.com/viewnav/go-camview/pkg/protocol"
)

// handleStatus reports engine and transport state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"animating":      s.engine.Animating(),
		"frame_by_frame": s.engine.FrameByFrame(),
		"queue_length":   s.engine.QueueLen(),
		"pose_clients":   s.poseHub.ClientCount(),
		"event_clients":  s.eventHub.ClientCount(),
		"frame_clients":  s.frameHub.ClientCount(),
		"webrtc_peers":   s.publisher.PeerCount(),
	})
}

// handleGetPose returns the current camera pose.
func (s *Server) handleGetPose(c *fiber.Ctx) error {
	p := s.engine.Pose()
	return c.JSON(protocol.PoseUpdate{
		Eye:       p.Eye,
		Focus:     p.Focus,
		Up:        p.Up,
		Animating: s.engine.Animating(),
	})
}

// handleSetPose overwrites the current pose directly, cancelling any active
// transition first.
func (s *Server) handleSetPose(c *fiber.Ctx) error {
	var req protocol.SetPoseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pose payload")
	}

	s.engine.SetPose(geom.Pose{Eye: req.Eye, Focus: req.Focus, Up: req.Up})
	return c.JSON(fiber.Map{"ok": true})
}

// handlePlacement enqueues a single camera movement.
func (s *Server) handlePlacement(c *fiber.Ctx) error {
	var req protocol.PlacementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid placement payload")
	}

	return c.JSON(fiber.Map{"queued": s.applyPlacement(req)})
}

// handleTrajectory enqueues an ordered list of camera movements.
func (s *Server) handleTrajectory(c *fiber.Ctx) error {
	var req protocol.TrajectoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid trajectory payload")
	}

	queued, skipped := s.applyTrajectory(req)
	return c.JSON(fiber.Map{"queued": queued, "skipped": skipped})
}

// handlePause defers a pause of the running animation.
func (s *Server) handlePause(c *fiber.Ctx) error {
	var req protocol.PauseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pause payload")
	}

	return c.JSON(fiber.Map{"paused": s.applyPause(req)})
}

// handleCancel discards all pending movements.
func (s *Server) handleCancel(c *fiber.Ctx) error {
	s.engine.Cancel()
	return c.JSON(fiber.Map{"ok": true})
}

// handleRegisterFrame registers or replaces a named coordinate frame.
func (s *Server) handleRegisterFrame(c *fiber.Ctx) error {
	var req struct {
		Name      string         `json:"name"`
		Transform geom.Transform `json:"transform"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid frame payload")
	}

	s.registry.Set(req.Name, req.Transform)
	return c.JSON(fiber.Map{"ok": true})
}

// handleWebRTCOffer answers a browser SDP offer with data channels for
// poses and view frames.
func (s *Server) handleWebRTCOffer(c *fiber.Ctx) error {
	var offer webrtc.SessionDescription
	if err := c.BodyParser(&offer); err != nil || offer.SDP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid SDP offer")
	}

	answer, err := s.publisher.Accept(offer)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(answer)
}
