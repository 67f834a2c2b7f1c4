// Package signaling carries the relay channel: the typed message set
// exchanged with the conference server and the WebSocket client that
// transports it. Messages are validated at this boundary so the protocol
// engine only ever sees well-formed input.
package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Type tags a relay message.
type Type string

const (
	TypeJoinRoom   Type = "join_room"
	TypeLeaveRoom  Type = "leave_room"
	TypeUserJoined Type = "user_joined"
	TypeUserLeft   Type = "user_left"
	TypeOffer      Type = "webrtc_offer"
	TypeAnswer     Type = "webrtc_answer"
	TypeCandidate  Type = "ice_candidate"
)

// Description is the wire form of a session description.
type Description struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// DescriptionFromPion converts a pion session description for the wire.
func DescriptionFromPion(desc webrtc.SessionDescription) *Description {
	return &Description{Type: desc.Type.String(), SDP: desc.SDP}
}

// ToPion converts the wire description back into pion's representation.
func (d Description) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch d.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", d.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: d.SDP}, nil
}

// Candidate is the wire form of an ICE candidate.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// CandidateFromPion converts a pion candidate init for the wire.
func CandidateFromPion(init webrtc.ICECandidateInit) *Candidate {
	return &Candidate{
		Candidate:        init.Candidate,
		SDPMid:           init.SDPMid,
		SDPMLineIndex:    init.SDPMLineIndex,
		UsernameFragment: init.UsernameFragment,
	}
}

// ToPion converts the wire candidate back into pion's representation.
func (c Candidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}

// Message is the closed variant carried on the relay channel. Which fields
// are populated depends on Type and direction: the relay stamps UserID with
// the sender's identity on forwarded offers/answers/candidates, while the
// sending client only addresses TargetUserID.
type Message struct {
	Type         Type         `json:"type"`
	RoomID       string       `json:"room_id,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	TargetUserID string       `json:"target_user_id,omitempty"`
	Offer        *Description `json:"offer,omitempty"`
	Answer       *Description `json:"answer,omitempty"`
	Candidate    *Candidate   `json:"candidate,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Parse decodes and validates a relay message.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the payload shape for the message's type. Identity
// fields are checked per direction by the relay and the engine; this only
// enforces the protocol-specific payloads.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeJoinRoom, TypeLeaveRoom:
		if m.RoomID == "" {
			return fmt.Errorf("%s message missing room_id", m.Type)
		}
		if m.UserID == "" {
			return fmt.Errorf("%s message missing user_id", m.Type)
		}
	case TypeUserJoined, TypeUserLeft:
		if m.UserID == "" {
			return fmt.Errorf("%s message missing user_id", m.Type)
		}
	case TypeOffer:
		if m.Offer == nil {
			return fmt.Errorf("offer message missing offer")
		}
		if m.Offer.Type != "offer" {
			return fmt.Errorf("offer message has sdp type %q", m.Offer.Type)
		}
	case TypeAnswer:
		if m.Answer == nil {
			return fmt.Errorf("answer message missing answer")
		}
		if m.Answer.Type != "answer" {
			return fmt.Errorf("answer message has sdp type %q", m.Answer.Type)
		}
	case TypeCandidate:
		if m.Candidate == nil || m.Candidate.Candidate == "" {
			return fmt.Errorf("ice_candidate message missing candidate")
		}
	default:
		return fmt.Errorf("unsupported message type %q", m.Type)
	}
	return nil
}
