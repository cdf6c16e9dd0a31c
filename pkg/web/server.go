// Package web exposes the camera controller over HTTP and WebSocket: a
// REST API for placements and queries, broadcast endpoints for poses,
// events, and view frames, a bidirectional control channel, and WebRTC
// signalling. The server also owns the render tick loop that drives the
// transition engine.
package web

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberws "github.com/gofiber/websocket/v2"

	"github.com/viewnav/go-camview/internal/log"
	"github.com/viewnav/go-camview/pkg/camera"
	"github.com/viewnav/go-camview/pkg/capture"
	"github.com/viewnav/go-camview/pkg/frames"
	"github.com/viewnav/go-camview/pkg/geom"
	"github.com/viewnav/go-camview/pkg/hub"
	"github.com/viewnav/go-camview/pkg/protocol"
	"github.com/viewnav/go-camview/pkg/stream"
)

// Server wires the transition engine to its transports.
type Server struct {
	app  *fiber.App
	port string

	engine   *camera.Engine
	registry *frames.Registry

	// Broadcast hubs (thread-safe fan-out)
	poseHub  *hub.Hub
	eventHub *hub.Hub
	frameHub *hub.Hub

	publisher *stream.Publisher
	source    capture.Source // nil when capture is disabled

	tick time.Duration
	stop chan struct{}

	// Set by the engine sinks during Tick, consumed by the loop.
	poseDirty     atomic.Bool
	captureDirty  atomic.Bool
	finishedDirty atomic.Bool

	seq     atomic.Uint64
	frameID atomic.Uint64
}

// NewServer creates an unstarted server around the given engine. source may
// be nil to disable view-image capture.
func NewServer(port string, engine *camera.Engine, registry *frames.Registry, source capture.Source, tick time.Duration) *Server {
	s := &Server{
		port:      port,
		engine:    engine,
		registry:  registry,
		poseHub:   hub.New("poses"),
		eventHub:  hub.New("events"),
		frameHub:  hub.New("frames"),
		publisher: stream.NewPublisher(),
		source:    source,
		tick:      tick,
		stop:      make(chan struct{}),
	}

	// The sinks run under the engine lock: record what happened, act
	// after Tick returns.
	engine.SetPoseSink(func(geom.Pose) { s.poseDirty.Store(true) })
	engine.SetCaptureSink(func() { s.captureDirty.Store(true) })
	engine.SetFinishedSink(func() { s.finishedDirty.Store(true) })

	app := fiber.New(fiber.Config{
		AppName:               "camview",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/pose", s.handleGetPose)
	api.Post("/pose", s.handleSetPose)
	api.Post("/placement", s.handlePlacement)
	api.Post("/trajectory", s.handleTrajectory)
	api.Post("/pause", s.handlePause)
	api.Post("/cancel", s.handleCancel)
	api.Post("/frames", s.handleRegisterFrame)
	api.Post("/webrtc/offer", s.handleWebRTCOffer)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/poses", fiberws.New(s.handlePosesWS))
	app.Get("/ws/events", fiberws.New(s.handleEventsWS))
	app.Get("/ws/frames", fiberws.New(s.handleFramesWS))
	app.Get("/ws/control", s.controlHandler())

	s.app = app
	return s
}

// Start runs the hubs, the tick loop, and the listener. It blocks until the
// listener stops.
func (s *Server) Start() error {
	go s.poseHub.Run()
	go s.eventHub.Run()
	go s.frameHub.Run()
	go s.runLoop()

	log.Info("camview listening", "port", s.port, "tick", s.tick.String())
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the tick loop and the listener.
func (s *Server) Shutdown() error {
	close(s.stop)
	if err := s.publisher.Close(); err != nil {
		log.Warn("publisher close", "err", err)
	}
	return s.app.Shutdown()
}

// runLoop is the host render loop: one Tick per interval, then whatever
// publishing the tick asked for.
func (s *Server) runLoop() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.engine.Tick(now)
			if s.poseDirty.Swap(false) {
				s.broadcastPose()
			}
			if s.captureDirty.Swap(false) {
				s.publishViewFrame()
			}
			if s.finishedDirty.Swap(false) {
				s.broadcastFinished()
			}
		}
	}
}

// broadcastPose publishes the current pose to the pose hub and all WebRTC
// peers.
func (s *Server) broadcastPose() {
	msg, err := protocol.NewPoseMessage(s.engine.Pose(), s.engine.Animating(), s.seq.Add(1))
	if err != nil {
		log.Error("encode pose update", "err", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Error("encode pose update", "err", err)
		return
	}
	s.poseHub.Broadcast(hub.NewJSONMessage(data))
	s.publisher.SendPose(data)
}

// broadcastFinished publishes the one-shot animation-finished signal.
func (s *Server) broadcastFinished() {
	msg, err := protocol.NewFinishedMessage()
	if err != nil {
		log.Error("encode finished signal", "err", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Error("encode finished signal", "err", err)
		return
	}
	s.eventHub.Broadcast(hub.NewJSONMessage(data))
	s.publisher.SendPose(data)
}

// publishViewFrame grabs one view image and fans it out. Capture failures
// are logged and skipped; the animation must not stall on a flaky device.
func (s *Server) publishViewFrame() {
	if s.source == nil {
		return
	}
	data, err := s.source.Grab()
	if err != nil {
		log.Warn("view capture failed", "err", err)
		return
	}

	s.frameHub.Broadcast(hub.NewBinaryMessage(data))
	s.publisher.SendFrame(data)

	// Listeners on the event stream get the frame as JSON metadata too.
	w, h := s.source.Size()
	if msg, err := protocol.NewFrameMessage(w, h, data, s.frameID.Add(1)); err == nil {
		if raw, err := msg.Bytes(); err == nil {
			s.eventHub.Broadcast(hub.NewJSONMessage(raw))
		}
	}
}

// Hub websocket handlers: register the connection and pump until it closes.

func (s *Server) handlePosesWS(c *fiberws.Conn) {
	hub.NewClient(s.poseHub, c).Run()
}

func (s *Server) handleEventsWS(c *fiberws.Conn) {
	hub.NewClient(s.eventHub, c).Run()
}

func (s *Server) handleFramesWS(c *fiberws.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}
