// Package stream delivers pose updates and captured view frames to browser
// peers over WebRTC data channels. Signalling is a single SDP offer/answer
// exchange carried by the HTTP API.
package stream

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/viewnav/go-camview/internal/log"
)

// Publisher fans pose and frame payloads out to all connected peers.
type Publisher struct {
	mu    sync.Mutex
	peers map[string]*peer
}

type peer struct {
	id     string
	pc     *webrtc.PeerConnection
	poses  *webrtc.DataChannel
	frames *webrtc.DataChannel
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{peers: make(map[string]*peer)}
}

// Accept answers a client SDP offer. Two data channels are created per
// peer: "poses" (ordered JSON pose updates) and "frames" (unordered,
// best-effort JPEG frames). The returned answer carries all gathered ICE
// candidates so no trickle signalling is needed.
func (p *Publisher) Accept(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	poses, err := pc.CreateDataChannel("poses", nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create poses channel: %w", err)
	}

	// Frames are disposable: a lost frame is replaced by the next one.
	ordered := false
	var retransmits uint16
	frames, err := pc.CreateDataChannel("frames", &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create frames channel: %w", err)
	}

	pr := &peer{
		id:     uuid.NewString(),
		pc:     pc,
		poses:  poses,
		frames: frames,
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug("webrtc peer state", "peer", pr.id, "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			p.remove(pr.id)
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set local description: %w", err)
	}
	<-gathered

	p.mu.Lock()
	p.peers[pr.id] = pr
	count := len(p.peers)
	p.mu.Unlock()
	log.Info("webrtc peer connected", "peer", pr.id, "peers", count)

	return pc.LocalDescription(), nil
}

// SendPose delivers a JSON pose update to every open peer.
func (p *Publisher) SendPose(data []byte) {
	p.each(func(pr *peer) {
		if pr.poses.ReadyState() == webrtc.DataChannelStateOpen {
			if err := pr.poses.SendText(string(data)); err != nil {
				log.Debug("pose send failed", "peer", pr.id, "err", err)
			}
		}
	})
}

// SendFrame delivers a binary frame to every open peer.
func (p *Publisher) SendFrame(data []byte) {
	p.each(func(pr *peer) {
		if pr.frames.ReadyState() == webrtc.DataChannelStateOpen {
			if err := pr.frames.Send(data); err != nil {
				log.Debug("frame send failed", "peer", pr.id, "err", err)
			}
		}
	})
}

// PeerCount returns the number of connected peers.
func (p *Publisher) PeerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.peers)
}

// Close tears down all peer connections.
func (p *Publisher) Close() error {
	p.mu.Lock()
	peers := make([]*peer, 0, len(p.peers))
	for _, pr := range p.peers {
		peers = append(peers, pr)
	}
	p.peers = make(map[string]*peer)
	p.mu.Unlock()

	for _, pr := range peers {
		pr.pc.Close()
	}
	return nil
}

func (p *Publisher) each(fn func(*peer)) {
	p.mu.Lock()
	peers := make([]*peer, 0, len(p.peers))
	for _, pr := range p.peers {
		peers = append(peers, pr)
	}
	p.mu.Unlock()

	for _, pr := range peers {
		fn(pr)
	}
}

func (p *Publisher) remove(id string) {
	p.mu.Lock()
	pr, ok := p.peers[id]
	if ok {
		delete(p.peers, id)
	}
	count := len(p.peers)
	p.mu.Unlock()

	if ok {
		pr.pc.Close()
		log.Info("webrtc peer removed", "peer", id, "peers", count)
	}
}
