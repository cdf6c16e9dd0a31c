package web

import (
	"sync"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/viewnav/go-camview/internal/log"
	"github.com/viewnav/go-camview/pkg/geom"
	"github.com/viewnav/go-camview/pkg/protocol"
)

// controlConn is one bidirectional control-channel connection. Requests
// come in as protocol messages; acknowledgements and errors go back on the
// same socket.
type controlConn struct {
	id   string
	conn *contribws.Conn

	mu sync.Mutex // serializes writes
}

func (cc *controlConn) send(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		log.Error("encode control reply", "err", err)
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(contribws.TextMessage, data); err != nil {
		log.Debug("control write failed", "conn", cc.id, "err", err)
	}
}

func (cc *controlConn) sendError(reason string) {
	if msg, err := protocol.NewErrorMessage(reason); err == nil {
		cc.send(msg)
	}
}

// controlHandler returns the websocket handler for /ws/control.
func (s *Server) controlHandler() fiber.Handler {
	return contribws.New(func(conn *contribws.Conn) {
		cc := &controlConn{
			id:   uuid.NewString(),
			conn: conn,
		}
		log.Info("control connection opened", "conn", cc.id)
		defer log.Info("control connection closed", "conn", cc.id)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			msg, err := protocol.ParseMessage(raw)
			if err != nil {
				cc.sendError("unparseable message")
				continue
			}
			s.dispatchControl(cc, msg)
		}
	})
}

// dispatchControl routes one control message to the engine.
func (s *Server) dispatchControl(cc *controlConn, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePlacement:
		req, err := msg.GetPlacementRequest()
		if err != nil {
			cc.sendError("invalid placement payload")
			return
		}
		if !s.applyPlacement(*req) {
			cc.sendError("placement rejected: negative transition duration")
		}

	case protocol.TypeTrajectory:
		req, err := msg.GetTrajectoryRequest()
		if err != nil {
			cc.sendError("invalid trajectory payload")
			return
		}
		queued, skipped := s.applyTrajectory(*req)
		if queued == 0 {
			cc.sendError("trajectory contained no playable entries")
		} else if skipped > 0 {
			cc.sendError("some trajectory entries were skipped")
		}

	case protocol.TypePause:
		req, err := msg.GetPauseRequest()
		if err != nil {
			cc.sendError("invalid pause payload")
			return
		}
		s.applyPause(*req)

	case protocol.TypeCancel:
		s.engine.Cancel()

	case protocol.TypeSetPose:
		req, err := msg.GetSetPoseRequest()
		if err != nil {
			cc.sendError("invalid pose payload")
			return
		}
		s.engine.SetPose(geom.Pose{Eye: req.Eye, Focus: req.Focus, Up: req.Up})

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			cc.sendError("invalid ping payload")
			return
		}
		if pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli()); err == nil {
			cc.send(pong)
		}

	default:
		cc.sendError("unsupported message type: " + string(msg.Type))
	}
}
