// Package conference implements the protocol engine: the peer session
// table, the signaling state machine per peer, and the room lifecycle.
// All session state is owned by a single run loop goroutine; commands and
// transport callbacks post closures into it instead of taking locks.
package conference

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/ysxemail003-cpu/ipv6conf/internal/api"
	"github.com/ysxemail003-cpu/ipv6conf/internal/config"
	"github.com/ysxemail003-cpu/ipv6conf/internal/identity"
	"github.com/ysxemail003-cpu/ipv6conf/internal/media"
	"github.com/ysxemail003-cpu/ipv6conf/internal/signaling"
)

// Relay is the outbound half of the signaling channel.
type Relay interface {
	Send(*signaling.Message)
}

// maxPendingPerPeer bounds the table-level hold of candidates that arrive
// before any session exists for their sender.
const maxPendingPerPeer = 64

// Options configures an Engine.
type Options struct {
	UserID   string
	Relay    Relay
	Incoming <-chan *signaling.Message

	// Media may be nil for a receive-only client; local capture is then
	// skipped and the media commands become no-ops.
	Media *media.Controller

	Directory *api.Client
	WebRTC    webrtc.Configuration
}

// WebRTCConfiguration builds the peer connection configuration from the
// application config.
func WebRTCConfiguration(cfg *config.Config) webrtc.Configuration {
	servers := []webrtc.ICEServer{{URLs: cfg.GetSTUNServers()}}
	if turn := cfg.GetTURNServers(); len(turn) > 0 {
		user, pass := cfg.GetTURNCredentials()
		servers = append(servers, webrtc.ICEServer{
			URLs:       turn,
			Username:   user,
			Credential: pass,
		})
	}
	conf := webrtc.Configuration{ICEServers: servers}
	if cfg.ForceRelay {
		conf.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}
	return conf
}

// Engine drives one conference client: room membership, one session per
// remote peer, and local media attachment.
type Engine struct {
	userID    string
	relay     Relay
	incoming  <-chan *signaling.Message
	media     *media.Controller
	directory *api.Client
	webrtcCfg webrtc.Configuration

	inbox  chan func()
	events chan Event
	done   chan struct{}

	// Loop-owned state. Touched only from Run's goroutine.
	phase    Phase
	roomID   string
	sessions map[string]*session
	pending  map[string][]webrtc.ICECandidateInit
}

// New creates an engine. Run must be called for it to make progress.
func New(opts Options) *Engine {
	return &Engine{
		userID:    opts.UserID,
		relay:     opts.Relay,
		incoming:  opts.Incoming,
		media:     opts.Media,
		directory: opts.Directory,
		webrtcCfg: opts.WebRTC,
		inbox:     make(chan func(), 128),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		sessions:  make(map[string]*session),
		pending:   make(map[string][]webrtc.ICECandidateInit),
	}
}

// Events is the notification stream for the presentation layer. It is
// closed when Run returns.
func (e *Engine) Events() <-chan Event { return e.events }

// UserID returns the local identity the engine signs messages with.
func (e *Engine) UserID() string { return e.userID }

// Run executes the engine loop until ctx is cancelled. When the relay's
// incoming channel closes the engine reports the disconnect and keeps
// established sessions alive; media keeps flowing peer to peer.
func (e *Engine) Run(ctx context.Context) {
	defer e.shutdown()
	incoming := e.incoming
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.inbox:
			fn()
		case msg, ok := <-incoming:
			if !ok {
				incoming = nil
				e.emit(ErrorOccurred{Err: newError(KindRelayDisconnected, "relay.read", ErrRelayClosed)})
				continue
			}
			e.dispatch(msg)
		}
	}
}

func (e *Engine) shutdown() {
	close(e.done)
	for _, s := range e.sessions {
		s.close()
	}
	e.sessions = nil
	e.pending = nil
	if e.media != nil {
		e.media.Release()
	}
	close(e.events)
}

// post hands a closure to the run loop. After shutdown it is a no-op.
func (e *Engine) post(fn func()) {
	select {
	case e.inbox <- fn:
	case <-e.done:
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		slog.Warn("dropping event, subscriber is behind", "event", fmt.Sprintf("%T", ev))
	}
}

// CreateRoom registers a room with the directory and joins it. An empty
// roomID mints a fresh one. Returns the room identifier joined.
func (e *Engine) CreateRoom(ctx context.Context, roomID string) (string, error) {
	if roomID == "" {
		roomID = identity.NewRoomID()
	}
	if e.directory != nil {
		if err := e.directory.CreateRoom(ctx, roomID, e.userID); err != nil {
			return "", newError(KindRoomUnavailable, "room.create", err)
		}
	}
	if err := e.JoinRoom(ctx, roomID); err != nil {
		return "", err
	}
	return roomID, nil
}

// JoinRoom registers with the directory, then announces on the relay and
// starts local capture. Joining a different room while already in one
// leaves the current room first; re-joining the same room is a no-op.
func (e *Engine) JoinRoom(ctx context.Context, roomID string) error {
	if e.directory != nil {
		if err := e.directory.JoinRoom(ctx, roomID, e.userID); err != nil {
			return newError(KindRoomUnavailable, "room.join", err)
		}
	}
	e.post(func() {
		if e.phase == PhaseInConference {
			if e.roomID == roomID {
				return
			}
			// Switching rooms tears the old one down first.
			if old := e.teardownRoom(); old != "" && e.directory != nil {
				go func() {
					if err := e.directory.LeaveRoom(context.Background(), old, e.userID); err != nil {
						slog.Debug("deregistering from room", "room", old, "error", err)
					}
				}()
			}
		}
		e.phase = PhaseInConference
		e.roomID = roomID
		e.relay.Send(&signaling.Message{
			Type:   signaling.TypeJoinRoom,
			RoomID: roomID,
			UserID: e.userID,
		})
		e.emit(PhaseChanged{Phase: PhaseInConference, RoomID: roomID})
		go e.acquireMedia(media.SourceCameraMic)
	})
	return nil
}

// LeaveRoom tears down every session, releases media, and deregisters
// from the directory. Safe to call when not in a room.
func (e *Engine) LeaveRoom(ctx context.Context) {
	left := make(chan string, 1)
	e.post(func() { left <- e.teardownRoom() })
	select {
	case roomID := <-left:
		if roomID != "" && e.directory != nil {
			if err := e.directory.LeaveRoom(ctx, roomID, e.userID); err != nil {
				slog.Debug("deregistering from room", "room", roomID, "error", err)
			}
		}
	case <-e.done:
	}
}

// teardownRoom leaves the conference phase: every session closes, held
// candidates are discarded, and local capture stops. Runs on the loop.
// Returns the room left, or "" when not in one.
func (e *Engine) teardownRoom() string {
	if e.phase != PhaseInConference {
		return ""
	}
	roomID := e.roomID
	e.relay.Send(&signaling.Message{
		Type:   signaling.TypeLeaveRoom,
		RoomID: roomID,
		UserID: e.userID,
	})
	for id, s := range e.sessions {
		s.close()
		delete(e.sessions, id)
		e.emit(ParticipantLeft{UserID: id})
	}
	e.pending = make(map[string][]webrtc.ICECandidateInit)
	if e.media != nil {
		e.media.Release()
	}
	e.phase = PhaseConfiguring
	e.roomID = ""
	e.emit(LocalMediaChanged{Live: false})
	e.emit(PhaseChanged{Phase: PhaseConfiguring})
	return roomID
}

// SetTrackEnabled toggles the local audio or video track. A no-op when no
// stream is live or the stream has no such track.
func (e *Engine) SetTrackEnabled(kind media.TrackKind, enabled bool) {
	if e.media == nil {
		return
	}
	e.media.SetTrackEnabled(kind, enabled)
}

// SetSource switches the local stream to the given capture source,
// replacing the outgoing tracks on every peer session in place.
func (e *Engine) SetSource(kind media.SourceKind) {
	go e.acquireMedia(kind)
}

// acquireMedia captures off the loop, then posts the attachment back.
func (e *Engine) acquireMedia(kind media.SourceKind) {
	if e.media == nil {
		e.post(func() {
			e.emit(ErrorOccurred{Err: newError(KindMediaUnavailable, "media.acquire", ErrNoMedia)})
		})
		return
	}
	stream, err := e.media.Acquire(kind)
	if err != nil {
		e.post(func() {
			e.emit(ErrorOccurred{Err: newError(KindMediaUnavailable, "media.acquire", err)})
		})
		return
	}
	e.post(func() {
		if e.phase != PhaseInConference {
			e.media.Release()
			return
		}
		for _, s := range e.sessions {
			e.syncSessionTracks(s, stream)
		}
		e.emit(LocalMediaChanged{Source: stream.Source(), Live: true})
	})
}

// localStream returns the live local stream, or nil when capture is off
// or the engine runs without a media controller.
func (e *Engine) localStream() *media.Stream {
	if e.media == nil {
		return nil
	}
	return e.media.Stream()
}

// syncSessionTracks makes a session's outgoing tracks match the stream.
// Matching senders are swapped in place, which needs no renegotiation;
// genuinely new tracks force a fresh offer on an established session.
func (e *Engine) syncSessionTracks(s *session, stream *media.Stream) {
	if s.state.terminal() {
		return
	}
	added := false
	for _, t := range stream.Tracks() {
		replaced := false
		for _, sender := range s.pc.GetSenders() {
			cur := sender.Track()
			if cur != nil && cur.Kind().String() == string(t.Kind()) {
				if err := sender.ReplaceTrack(t.Local()); err != nil {
					slog.Warn("replacing outgoing track", "peer", s.userID, "error", err)
				}
				replaced = true
				break
			}
		}
		if replaced {
			continue
		}
		if _, err := s.pc.AddTrack(t.Local()); err != nil {
			slog.Warn("adding outgoing track", "peer", s.userID, "error", err)
			continue
		}
		added = true
	}
	if added && (s.state == StateConnectedPending || s.state == StateConnected) {
		e.sendOffer(s)
	}
}

// ParticipantStatus is one row of a connectivity snapshot.
type ParticipantStatus struct {
	UserID   string
	State    State
	Link     LinkState
	StreamID string
}

// Snapshot is a point-in-time view of the engine for the UI and the
// status command.
type Snapshot struct {
	Phase        Phase
	RoomID       string
	Participants []ParticipantStatus
}

// Status returns a consistent snapshot taken on the run loop. Returns the
// zero Snapshot after shutdown.
func (e *Engine) Status() Snapshot {
	reply := make(chan Snapshot, 1)
	e.post(func() {
		snap := Snapshot{Phase: e.phase, RoomID: e.roomID}
		for _, s := range e.sessions {
			snap.Participants = append(snap.Participants, ParticipantStatus{
				UserID:   s.userID,
				State:    s.state,
				Link:     s.link,
				StreamID: s.remote.ID,
			})
		}
		reply <- snap
	})
	select {
	case snap := <-reply:
		return snap
	case <-e.done:
		return Snapshot{}
	}
}

// dispatch routes one validated relay message. Self echoes and traffic
// for other rooms or targets are dropped here, before any session work.
func (e *Engine) dispatch(msg *signaling.Message) {
	if e.phase != PhaseInConference {
		slog.Debug("relay message outside a room", "type", msg.Type)
		return
	}
	if msg.UserID == e.userID {
		return
	}
	if msg.TargetUserID != "" && msg.TargetUserID != e.userID {
		return
	}
	if msg.RoomID != "" && msg.RoomID != e.roomID {
		return
	}
	switch msg.Type {
	case signaling.TypeUserJoined:
		e.handleUserJoined(msg.UserID)
	case signaling.TypeUserLeft:
		e.handleUserLeft(msg.UserID)
	case signaling.TypeOffer:
		e.handleOffer(msg)
	case signaling.TypeAnswer:
		e.handleAnswer(msg)
	case signaling.TypeCandidate:
		e.handleCandidate(msg)
	default:
		slog.Debug("ignoring relay message", "type", msg.Type)
	}
}

// handleUserJoined starts the offerer path toward a newly announced peer.
// A duplicate announcement for a live session is ignored.
func (e *Engine) handleUserJoined(userID string) {
	if _, ok := e.sessions[userID]; ok {
		slog.Debug("duplicate join announcement", "peer", userID)
		return
	}
	s, err := e.newSession(userID)
	if err != nil {
		e.emit(ErrorOccurred{Err: newError(KindNegotiationFailed, "session.create", err)})
		return
	}
	e.sessions[userID] = s
	e.emit(ParticipantJoined{UserID: userID})
	e.adoptPending(s)

	dc, err := s.pc.CreateDataChannel(chatChannelLabel, nil)
	if err != nil {
		slog.Warn("creating chat channel", "peer", userID, "error", err)
	} else {
		e.wireChat(s, dc)
	}

	e.sendOffer(s)
	if s.setState(StateOffering) {
		e.emit(SessionStateChanged{UserID: userID, State: s.state})
	}
}

func (e *Engine) sendOffer(s *session) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		e.failSession(s, "offer.create", err)
		return
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		e.failSession(s, "offer.apply", err)
		return
	}
	e.relay.Send(&signaling.Message{
		Type:         signaling.TypeOffer,
		RoomID:       e.roomID,
		UserID:       e.userID,
		TargetUserID: s.userID,
		Offer:        signaling.DescriptionFromPion(offer),
	})
}

// handleOffer runs the answerer path. An offer from an unknown peer
// creates the session on the spot; an offer on an existing session is a
// renegotiation and the newest one wins.
func (e *Engine) handleOffer(msg *signaling.Message) {
	from := msg.UserID
	if from == "" {
		slog.Debug("offer without sender identity")
		return
	}
	s, ok := e.sessions[from]
	if !ok {
		created, err := e.newSession(from)
		if err != nil {
			e.emit(ErrorOccurred{Err: newError(KindNegotiationFailed, "session.create", err)})
			return
		}
		s = created
		e.sessions[from] = s
		e.emit(ParticipantJoined{UserID: from})
		e.adoptPending(s)
	}
	if s.state.terminal() {
		slog.Debug("offer for terminal session", "peer", from)
		return
	}

	desc, err := msg.Offer.ToPion()
	if err != nil {
		e.failSession(s, "offer.decode", err)
		return
	}
	if err := s.applyRemoteDescription(desc); err != nil {
		e.failSession(s, "offer.remote", err)
		return
	}
	settled := s.state == StateConnectedPending || s.state == StateConnected
	if !settled && s.setState(StateNegotiating) {
		e.emit(SessionStateChanged{UserID: from, State: s.state})
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		e.failSession(s, "answer.create", err)
		return
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		e.failSession(s, "answer.apply", err)
		return
	}
	e.relay.Send(&signaling.Message{
		Type:         signaling.TypeAnswer,
		RoomID:       e.roomID,
		UserID:       e.userID,
		TargetUserID: from,
		Answer:       signaling.DescriptionFromPion(answer),
	})
	if !settled && s.setState(StateConnectedPending) {
		e.emit(SessionStateChanged{UserID: from, State: s.state})
	}
}

// handleAnswer completes the offerer path. Answers for unknown peers or
// sessions not waiting on one are stale and dropped.
func (e *Engine) handleAnswer(msg *signaling.Message) {
	s, ok := e.sessions[msg.UserID]
	if !ok {
		slog.Debug("answer for unknown peer", "peer", msg.UserID)
		return
	}
	if s.state.terminal() || s.pc.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		slog.Debug("stale answer", "peer", msg.UserID, "state", s.state)
		return
	}
	desc, err := msg.Answer.ToPion()
	if err != nil {
		e.failSession(s, "answer.decode", err)
		return
	}
	if err := s.applyRemoteDescription(desc); err != nil {
		e.failSession(s, "answer.remote", err)
		return
	}
	if s.state == StateOffering && s.setState(StateConnectedPending) {
		e.emit(SessionStateChanged{UserID: s.userID, State: s.state})
	}
}

// handleCandidate applies a remote candidate, holding it when its session
// does not exist yet. A bad candidate is reported but never fails the
// session; the agent can usually connect without it.
func (e *Engine) handleCandidate(msg *signaling.Message) {
	from := msg.UserID
	if from == "" {
		slog.Debug("candidate without sender identity")
		return
	}
	init := msg.Candidate.ToPion()
	s, ok := e.sessions[from]
	if !ok {
		held := e.pending[from]
		if len(held) >= maxPendingPerPeer {
			slog.Warn("candidate hold full, dropping oldest", "peer", from)
			held = held[1:]
		}
		e.pending[from] = append(held, init)
		return
	}
	if err := s.addCandidate(init); err != nil {
		slog.Warn("applying remote candidate", "peer", from, "error", err)
		e.emit(ErrorOccurred{Err: newError(KindNegotiationFailed, "candidate.apply", err)})
	}
}

// adoptPending moves table-held candidates into a freshly created session.
func (e *Engine) adoptPending(s *session) {
	held, ok := e.pending[s.userID]
	if !ok {
		return
	}
	delete(e.pending, s.userID)
	for _, init := range held {
		if err := s.addCandidate(init); err != nil {
			slog.Warn("applying held candidate", "peer", s.userID, "error", err)
		}
	}
}

func (e *Engine) handleUserLeft(userID string) {
	s, ok := e.sessions[userID]
	if !ok {
		delete(e.pending, userID)
		return
	}
	s.close()
	delete(e.sessions, userID)
	delete(e.pending, userID)
	e.emit(ParticipantLeft{UserID: userID})
}

// failSession marks a session failed and reports why. Only this peer's
// link is affected; the rest of the mesh keeps running.
func (e *Engine) failSession(s *session, op string, err error) {
	if s.state.terminal() {
		return
	}
	s.state = StateFailed
	if cerr := s.pc.Close(); cerr != nil {
		slog.Debug("closing failed peer connection", "peer", s.userID, "error", cerr)
	}
	e.emit(SessionStateChanged{UserID: s.userID, State: StateFailed})
	e.emit(ErrorOccurred{Err: newError(KindNegotiationFailed, op, err)})
}

// newSession builds the peer connection, attaches the current local
// tracks, and wires every transport callback back into the run loop. Each
// continuation re-checks that the session is still the live one for its
// peer before touching it.
func (e *Engine) newSession(userID string) (*session, error) {
	pc, err := webrtc.NewPeerConnection(e.webrtcCfg)
	if err != nil {
		return nil, err
	}
	s := &session{userID: userID, pc: pc, state: StateCreated}

	if stream := e.localStream(); stream != nil {
		for _, t := range stream.Tracks() {
			if _, err := pc.AddTrack(t.Local()); err != nil {
				pc.Close()
				return nil, err
			}
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			e.relay.Send(&signaling.Message{
				Type:         signaling.TypeCandidate,
				RoomID:       e.roomID,
				UserID:       e.userID,
				TargetUserID: userID,
				Candidate:    signaling.CandidateFromPion(init),
			})
		})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			s.link.Connection = state
			e.emit(LinkStateChanged{UserID: userID, Link: s.link})
			if state == webrtc.PeerConnectionStateConnected &&
				s.state == StateConnectedPending && s.setState(StateConnected) {
				e.emit(SessionStateChanged{UserID: userID, State: s.state})
			}
		})
	})

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			s.link.ICE = state
			e.emit(LinkStateChanged{UserID: userID, Link: s.link})
		})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		go drainRTP(track)
		go drainRTCP(receiver)
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			s.remote.ID = track.StreamID()
			s.remote.Tracks = append(s.remote.Tracks, track)
			e.emit(RemoteTrackAdded{
				UserID:   userID,
				Kind:     track.Kind().String(),
				StreamID: track.StreamID(),
			})
		})
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			if dc.Label() != chatChannelLabel {
				slog.Debug("unexpected data channel", "peer", userID, "label", dc.Label())
				return
			}
			e.wireChat(s, dc)
		})
	})

	return s, nil
}

// Remote packets must be read or the interceptor pipeline stalls.
func drainRTP(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

func drainRTCP(receiver *webrtc.RTPReceiver) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := receiver.Read(buf); err != nil {
			return
		}
	}
}
