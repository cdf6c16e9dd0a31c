// Package protocol defines the WebSocket message types for the camview
// control and publishing channels. Clients send placement, trajectory,
// pause, and cancel requests; the server streams pose updates, finished
// signals, and view frames.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/viewnav/go-camview/pkg/geom"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypePlacement  MessageType = "placement"  // Single camera placement
	TypeTrajectory MessageType = "trajectory" // Ordered list of placements
	TypePause      MessageType = "pause"      // Pause the running animation
	TypeCancel     MessageType = "cancel"     // Cancel all pending movements
	TypeSetPose    MessageType = "set_pose"   // Directly overwrite the pose

	// Server → Client messages
	TypePose     MessageType = "pose"     // Per-tick camera pose
	TypeFinished MessageType = "finished" // Frame-by-frame animation done
	TypeFrame    MessageType = "frame"    // Captured view image
	TypeError    MessageType = "error"    // Request-level failure report

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// FramedPoint is a point optionally expressed in a named coordinate frame.
// An empty frame means the fixed working frame.
type FramedPoint struct {
	Point geom.Vec3 `json:"point"`
	Frame string    `json:"frame,omitempty"`
}

// FramedVector is a direction optionally expressed in a named frame.
type FramedVector struct {
	Vector geom.Vec3 `json:"vector"`
	Frame  string    `json:"frame,omitempty"`
}

// PlacementRequest asks for one camera movement.
type PlacementRequest struct {
	Eye   FramedPoint  `json:"eye"`
	Focus FramedPoint  `json:"focus"`
	Up    FramedVector `json:"up"`

	// TimeFromStart is the transition duration in seconds. Negative
	// values reject the request.
	TimeFromStart float64 `json:"time_from_start"`

	// Style selects the easing curve: rising, declining, full, wave.
	// Unknown values fall back to wave.
	Style string `json:"interpolation_style,omitempty"`

	// TargetFrame, when set, re-expresses the whole placement in the
	// named frame before enqueueing.
	TargetFrame string `json:"target_frame,omitempty"`
}

// TrajectoryRequest asks for an ordered sequence of camera movements.
// TimeFromStart of each entry is treated as a per-segment duration.
type TrajectoryRequest struct {
	Trajectory []PlacementRequest `json:"trajectory"`

	// RenderFrameByFrame switches progress to counted rendered frames at
	// FramesPerSecond, for deterministic offline capture.
	RenderFrameByFrame bool    `json:"render_frame_by_frame,omitempty"`
	FramesPerSecond    float64 `json:"frames_per_second,omitempty"`

	TargetFrame string `json:"target_frame,omitempty"`
}

// PauseRequest freezes visible animation progress for a duration.
type PauseRequest struct {
	Seconds float64 `json:"seconds"`
}

// SetPoseRequest directly overwrites the current pose (cancels any active
// transition first).
type SetPoseRequest struct {
	Eye   geom.Vec3 `json:"eye"`
	Focus geom.Vec3 `json:"focus"`
	Up    geom.Vec3 `json:"up"`
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// PoseUpdate is the per-tick camera pose.
type PoseUpdate struct {
	Eye       geom.Vec3 `json:"eye"`
	Focus     geom.Vec3 `json:"focus"`
	Up        geom.Vec3 `json:"up"`
	Animating bool      `json:"animating"`
	Seq       uint64    `json:"seq,omitempty"`
}

// FinishedData signals the one-shot completion of a frame-by-frame
// animation.
type FinishedData struct {
	Finished bool `json:"finished"`
}

// FrameData contains a captured view image
type FrameData struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ErrorData reports a request-level failure back to the client.
type ErrorData struct {
	Reason string `json:"reason"`
}

// PingData / PongData carry health-check round trips.
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts,omitempty"`
}

// PongData is the reply to a ping.
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
