package conference

import (
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// State is the lifecycle state of a single peer session.
type State int

const (
	// StateCreated means the peer connection exists but no offer has moved yet.
	StateCreated State = iota
	// StateOffering means a local offer was sent and we await the answer.
	StateOffering
	// StateNegotiating means a remote offer was applied and we are answering.
	StateNegotiating
	// StateConnectedPending means the SDP exchange finished and ICE is working.
	StateConnectedPending
	// StateConnected means the transport reported connected.
	StateConnected
	// StateFailed is terminal for the session; the peer row stays visible.
	StateFailed
	// StateClosed is terminal; resources are released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOffering:
		return "offering"
	case StateNegotiating:
		return "negotiating"
	case StateConnectedPending:
		return "connected-pending"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateFailed || s == StateClosed
}

// LinkState mirrors the transport-level connectivity of a peer session.
// It is reported alongside, not instead of, the signaling State.
type LinkState struct {
	Connection webrtc.PeerConnectionState
	ICE        webrtc.ICEConnectionState
}

// RemoteStream groups the remote tracks a peer has published.
type RemoteStream struct {
	ID     string
	Tracks []*webrtc.TrackRemote
}

// maxSessionCandidates bounds the per-session hold of early remote
// candidates that arrive before the remote description is applied.
const maxSessionCandidates = 64

// session is one row of the peer session table. All fields are owned by
// the engine goroutine; nothing here takes a lock.
type session struct {
	userID string
	pc     *webrtc.PeerConnection

	state State
	link  LinkState

	remote RemoteStream
	chat   *webrtc.DataChannel

	// Candidates received before SetRemoteDescription succeeded. Applying
	// them earlier would fail inside the ICE agent, so they wait here.
	pendingCandidates []webrtc.ICECandidateInit
}

func (s *session) setState(next State) bool {
	if s.state.terminal() {
		return false
	}
	if s.state == next {
		return false
	}
	s.state = next
	return true
}

// applyRemoteDescription sets the remote SDP and flushes any candidates
// that were held while it was missing.
func (s *session) applyRemoteDescription(desc webrtc.SessionDescription) error {
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	for _, c := range s.pendingCandidates {
		if err := s.pc.AddICECandidate(c); err != nil {
			slog.Warn("discarding held candidate", "peer", s.userID, "error", err)
		}
	}
	s.pendingCandidates = nil
	return nil
}

// addCandidate applies a remote candidate, or holds it until the remote
// description lands.
func (s *session) addCandidate(c webrtc.ICECandidateInit) error {
	if s.pc.RemoteDescription() == nil {
		if len(s.pendingCandidates) >= maxSessionCandidates {
			slog.Warn("candidate hold full, dropping oldest", "peer", s.userID)
			s.pendingCandidates = s.pendingCandidates[1:]
		}
		s.pendingCandidates = append(s.pendingCandidates, c)
		return nil
	}
	return s.pc.AddICECandidate(c)
}

func (s *session) close() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.pendingCandidates = nil
	if err := s.pc.Close(); err != nil {
		slog.Debug("closing peer connection", "peer", s.userID, "error", err)
	}
}
