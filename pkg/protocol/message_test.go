package protocol

import (
	"encoding/base64"
	"testing"

	"github.com/viewnav/go-camview/pkg/geom"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "placement message",
			msgType: TypePlacement,
			data: PlacementRequest{
				Eye:           FramedPoint{Point: geom.Vec3{X: 1, Y: 2, Z: 3}},
				TimeFromStart: 1.5,
				Style:         "wave",
			},
			wantErr: false,
		},
		{
			name:    "pose message",
			msgType: TypePose,
			data:    PoseUpdate{Eye: geom.Vec3{Z: 10}, Animating: true, Seq: 7},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	original := TrajectoryRequest{
		Trajectory: []PlacementRequest{
			{
				Eye:           FramedPoint{Point: geom.Vec3{X: 1}, Frame: "platform"},
				Focus:         FramedPoint{Point: geom.Vec3{Z: -2}},
				Up:            FramedVector{Vector: geom.Vec3{Y: 1}},
				TimeFromStart: 2,
				Style:         "rising",
			},
			{
				Eye:           FramedPoint{Point: geom.Vec3{X: 5}},
				TimeFromStart: 0.5,
			},
		},
		RenderFrameByFrame: true,
		FramesPerSecond:    24,
	}

	msg, err := NewMessage(TypeTrajectory, original)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeTrajectory {
		t.Errorf("parsed type = %v, want trajectory", parsed.Type)
	}

	got, err := parsed.GetTrajectoryRequest()
	if err != nil {
		t.Fatalf("GetTrajectoryRequest() error = %v", err)
	}
	if len(got.Trajectory) != 2 {
		t.Fatalf("trajectory entries = %d, want 2", len(got.Trajectory))
	}
	if got.Trajectory[0].Eye.Frame != "platform" {
		t.Errorf("frame = %q, want platform", got.Trajectory[0].Eye.Frame)
	}
	if got.Trajectory[0].Style != "rising" {
		t.Errorf("style = %q, want rising", got.Trajectory[0].Style)
	}
	if !got.RenderFrameByFrame || got.FramesPerSecond != 24 {
		t.Errorf("frame-by-frame settings lost: %+v", got)
	}
}

func TestFrameMessageEncodesBase64(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}

	msg, err := NewFrameMessage(640, 480, jpeg, 3)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}

	frame, err := msg.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if frame.Format != "jpeg" || frame.Width != 640 || frame.Height != 480 || frame.FrameID != 3 {
		t.Errorf("frame metadata = %+v", frame)
	}
	if frame.Data != base64.StdEncoding.EncodeToString(jpeg) {
		t.Error("frame data not base64 encoded")
	}

	decoded, err := frame.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData() error = %v", err)
	}
	if string(decoded) != string(jpeg) {
		t.Error("decoded frame differs from original")
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage should fail on invalid JSON")
	}
}

func TestPongLatency(t *testing.T) {
	msg, err := NewPongMessage("abc", 100, 125)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pong.LatencyMs != 25 {
		t.Errorf("latency = %d, want 25", pong.LatencyMs)
	}
}
