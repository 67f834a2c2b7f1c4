package signaling

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name string
		data string
		typ  Type
	}{
		{"join", `{"type":"join_room","room_id":"r1","user_id":"u1"}`, TypeJoinRoom},
		{"leave", `{"type":"leave_room","room_id":"r1","user_id":"u1"}`, TypeLeaveRoom},
		{"user joined", `{"type":"user_joined","user_id":"u2"}`, TypeUserJoined},
		{"user left", `{"type":"user_left","user_id":"u2"}`, TypeUserLeft},
		{"offer", `{"type":"webrtc_offer","user_id":"u2","offer":{"type":"offer","sdp":"v=0"}}`, TypeOffer},
		{"answer", `{"type":"webrtc_answer","user_id":"u2","answer":{"type":"answer","sdp":"v=0"}}`, TypeAnswer},
		{"candidate", `{"type":"ice_candidate","user_id":"u2","candidate":{"candidate":"candidate:1 1 udp 1 ::1 4242 typ host"}}`, TypeCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if msg.Type != tt.typ {
				t.Errorf("Type = %q, want %q", msg.Type, tt.typ)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"bogus"}`},
		{"join without room", `{"type":"join_room","user_id":"u1"}`},
		{"join without user", `{"type":"join_room","room_id":"r1"}`},
		{"user_joined without user", `{"type":"user_joined"}`},
		{"offer without sdp", `{"type":"webrtc_offer","user_id":"u2"}`},
		{"offer carrying answer sdp", `{"type":"webrtc_offer","user_id":"u2","offer":{"type":"answer","sdp":"v=0"}}`},
		{"answer without sdp", `{"type":"webrtc_answer","user_id":"u2"}`},
		{"answer carrying offer sdp", `{"type":"webrtc_answer","user_id":"u2","answer":{"type":"offer","sdp":"v=0"}}`},
		{"candidate without payload", `{"type":"ice_candidate","user_id":"u2"}`},
		{"candidate with empty string", `{"type":"ice_candidate","user_id":"u2","candidate":{"candidate":""}}`},
		{"not json", `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("Parse(%s) succeeded, want error", tt.data)
			}
		})
	}
}

func TestDescriptionToPion(t *testing.T) {
	desc := Description{Type: "offer", SDP: "v=0"}
	pion, err := desc.ToPion()
	if err != nil {
		t.Fatalf("ToPion: %v", err)
	}
	if pion.Type != webrtc.SDPTypeOffer || pion.SDP != "v=0" {
		t.Errorf("ToPion = %+v", pion)
	}

	if _, err := (Description{Type: "pranswer", SDP: "v=0"}).ToPion(); err == nil {
		t.Error("ToPion accepted unsupported sdp type")
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	mid := "0"
	idx := uint16(0)
	init := webrtc.ICECandidateInit{
		Candidate:     "candidate:1 1 udp 2130706431 ::1 4242 typ host",
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	}

	got := CandidateFromPion(init).ToPion()
	if got.Candidate != init.Candidate || *got.SDPMid != mid || *got.SDPMLineIndex != idx {
		t.Errorf("round trip altered candidate: %+v", got)
	}
}
