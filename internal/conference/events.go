package conference

import "github.com/ysxemail003-cpu/ipv6conf/internal/media"

// Phase is the application phase the client is in.
type Phase int

const (
	PhaseConfiguring Phase = iota
	PhaseInConference
)

func (p Phase) String() string {
	if p == PhaseInConference {
		return "in-conference"
	}
	return "configuring"
}

// Event is a presentation-facing notification. The engine publishes these
// on its Events channel; the UI subscribes and never reaches back into the
// engine's state.
type Event interface {
	event()
}

// PhaseChanged reports entering or leaving a conference.
type PhaseChanged struct {
	Phase  Phase
	RoomID string
}

// ParticipantJoined reports a new peer session in the table.
type ParticipantJoined struct {
	UserID string
}

// ParticipantLeft reports a peer session removed from the table.
type ParticipantLeft struct {
	UserID string
}

// SessionStateChanged reports a signaling state transition for one peer.
type SessionStateChanged struct {
	UserID string
	State  State
}

// LinkStateChanged mirrors a transport/ICE connectivity transition.
type LinkStateChanged struct {
	UserID string
	Link   LinkState
}

// RemoteTrackAdded reports remote media arriving on a peer session.
type RemoteTrackAdded struct {
	UserID   string
	Kind     string
	StreamID string
}

// LocalMediaChanged reports the local stream being acquired or replaced.
type LocalMediaChanged struct {
	Source media.SourceKind
	Live   bool
}

// ChatReceived carries an in-conference chat message from a peer.
type ChatReceived struct {
	From    string
	Message ChatMessage
}

// ErrorOccurred surfaces a caught error to the user.
type ErrorOccurred struct {
	Err *Error
}

func (PhaseChanged) event()        {}
func (ParticipantJoined) event()   {}
func (ParticipantLeft) event()     {}
func (SessionStateChanged) event() {}
func (LinkStateChanged) event()    {}
func (RemoteTrackAdded) event()    {}
func (LocalMediaChanged) event()   {}
func (ChatReceived) event()        {}
func (ErrorOccurred) event()       {}
