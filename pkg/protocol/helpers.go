package protocol

import (
	"encoding/base64"

	"github.com/viewnav/go-camview/pkg/geom"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseMessage creates a pose update message
func NewPoseMessage(p geom.Pose, animating bool, seq uint64) (*Message, error) {
	return NewMessage(TypePose, PoseUpdate{
		Eye:       p.Eye,
		Focus:     p.Focus,
		Up:        p.Up,
		Animating: animating,
		Seq:       seq,
	})
}

// NewFinishedMessage creates the one-shot animation-finished message
func NewFinishedMessage() (*Message, error) {
	return NewMessage(TypeFinished, FinishedData{Finished: true})
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewErrorMessage creates an error report message
func NewErrorMessage(reason string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Reason: reason})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetPlacementRequest extracts a placement request from a message
func (m *Message) GetPlacementRequest() (*PlacementRequest, error) {
	var data PlacementRequest
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTrajectoryRequest extracts a trajectory request from a message
func (m *Message) GetTrajectoryRequest() (*TrajectoryRequest, error) {
	var data TrajectoryRequest
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPauseRequest extracts a pause request from a message
func (m *Message) GetPauseRequest() (*PauseRequest, error) {
	var data PauseRequest
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSetPoseRequest extracts a direct pose overwrite from a message
func (m *Message) GetSetPoseRequest() (*SetPoseRequest, error) {
	var data SetPoseRequest
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPoseUpdate extracts a pose update from a message
func (m *Message) GetPoseUpdate() (*PoseUpdate, error) {
	var data PoseUpdate
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
