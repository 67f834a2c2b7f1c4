package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ysxemail003-cpu/ipv6conf/internal/signaling"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("[::]:0", 5000)
	s.started = time.Now()
	go s.hub.Run()
	ts := httptest.NewServer(s.router())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestServerInfoEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/server_info")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success     bool   `json:"success"`
		IPv6Address string `json:"ipv6_address"`
		Port        int    `json:"port"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.IPv6Address == "" || body.Port != 5000 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	s.directory.Create("ipv6_room_test0000_1", "", "ipv6_user_alice000_1")
	s.directory.Join("ipv6_room_test0000_1", "ipv6_user_alice000_1")

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("unexpected body: %+v", body)
	}
	if got := body["active_rooms"]; got != float64(1) {
		t.Fatalf("active_rooms = %v, want 1", got)
	}
	if got := body["active_users"]; got != float64(1) {
		t.Fatalf("active_users = %v, want 1", got)
	}
	// Reachability depends on the host's network; the field only has to
	// be present and boolean.
	if _, ok := body["ipv6_reachable"].(bool); !ok {
		t.Fatalf("ipv6_reachable = %v, want a bool", body["ipv6_reachable"])
	}
	if _, ok := body["uptime"].(string); !ok {
		t.Fatalf("uptime = %v, want a string", body["uptime"])
	}
}

func TestRoomEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/rooms", map[string]string{
		"room_id": "ipv6_room_test0000_1",
		"user_id": "ipv6_user_alice000_1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Duplicate rooms are rejected.
	resp = postJSON(t, ts.URL+"/api/rooms", map[string]string{
		"room_id": "ipv6_room_test0000_1",
		"user_id": "ipv6_user_bob00000_1",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/rooms/ipv6_room_test0000_1/join", map[string]string{
		"user_id": "ipv6_user_alice000_1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/rooms/ipv6_room_missing0_1/join", map[string]string{
		"user_id": "ipv6_user_alice000_1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("join missing room status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listBody struct {
		Success bool       `json:"success"`
		Rooms   []RoomInfo `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listBody); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(listBody.Rooms) != 1 || listBody.Rooms[0].ID != "ipv6_room_test0000_1" {
		t.Fatalf("rooms = %+v", listBody.Rooms)
	}
	if got := listBody.Rooms[0].Users; len(got) != 1 || got[0] != "ipv6_user_alice000_1" {
		t.Fatalf("users = %v", got)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *signaling.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg signaling.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return &msg
}

// joinRoom writes a join and waits until the hub has processed it. The
// hub works through each connection's frames in order, so reading back a
// self-addressed candidate proves the join landed first; without the
// barrier two connections' joins can interleave either way.
func joinRoom(t *testing.T, conn *websocket.Conn, roomID, userID string) {
	t.Helper()
	err := conn.WriteJSON(&signaling.Message{
		Type:   signaling.TypeJoinRoom,
		RoomID: roomID,
		UserID: userID,
	})
	if err != nil {
		t.Fatalf("join write: %v", err)
	}
	err = conn.WriteJSON(&signaling.Message{
		Type:         signaling.TypeCandidate,
		TargetUserID: userID,
		Candidate:    &signaling.Candidate{Candidate: "candidate:0 1 UDP 1 ::1 9 typ host"},
	})
	if err != nil {
		t.Fatalf("sync write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != signaling.TypeCandidate {
		t.Fatalf("sync read got %q, want the candidate echo", msg.Type)
	}
}

func TestRelayAnnouncesAndStamps(t *testing.T) {
	_, ts := newTestServer(t)

	alice := dialWS(t, ts)
	bob := dialWS(t, ts)

	joinRoom(t, alice, "ipv6_room_test0000_1", "ipv6_user_alice000_1")
	joinRoom(t, bob, "ipv6_room_test0000_1", "ipv6_user_bob00000_1")

	// Alice hears bob arrive. Nobody hears their own join.
	msg := readMessage(t, alice)
	if msg.Type != signaling.TypeUserJoined || msg.UserID != "ipv6_user_bob00000_1" {
		t.Fatalf("alice got %+v, want bob's user_joined", msg)
	}

	// A targeted offer reaches only its addressee, stamped with the
	// sender's identity even though the sender omitted it.
	err := alice.WriteJSON(&signaling.Message{
		Type:         signaling.TypeOffer,
		TargetUserID: "ipv6_user_bob00000_1",
		Offer:        &signaling.Description{Type: "offer", SDP: "v=0\r\n"},
	})
	if err != nil {
		t.Fatalf("offer write: %v", err)
	}
	msg = readMessage(t, bob)
	if msg.Type != signaling.TypeOffer {
		t.Fatalf("bob got %q, want offer", msg.Type)
	}
	if msg.UserID != "ipv6_user_alice000_1" {
		t.Fatalf("offer sender = %q, want alice", msg.UserID)
	}
	if msg.RoomID != "ipv6_room_test0000_1" {
		t.Fatalf("offer room = %q", msg.RoomID)
	}
}

func TestRelayReportsDisconnect(t *testing.T) {
	s, ts := newTestServer(t)
	s.directory.Create("ipv6_room_test0000_1", "", "ipv6_user_alice000_1")
	s.directory.Join("ipv6_room_test0000_1", "ipv6_user_alice000_1")
	s.directory.Join("ipv6_room_test0000_1", "ipv6_user_bob00000_1")

	alice := dialWS(t, ts)
	bob := dialWS(t, ts)

	joinRoom(t, alice, "ipv6_room_test0000_1", "ipv6_user_alice000_1")
	joinRoom(t, bob, "ipv6_room_test0000_1", "ipv6_user_bob00000_1")

	if msg := readMessage(t, alice); msg.Type != signaling.TypeUserJoined {
		t.Fatalf("alice got %q, want user_joined", msg.Type)
	}

	// Bob's connection dies without a leave_room. The room is told and
	// the directory is scrubbed.
	bob.Close()

	msg := readMessage(t, alice)
	if msg.Type != signaling.TypeUserLeft || msg.UserID != "ipv6_user_bob00000_1" {
		t.Fatalf("alice got %+v, want bob's user_left", msg)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rooms, _ := s.directory.Counts()
		users := 0
		for _, r := range s.directory.List() {
			users += len(r.Users)
		}
		if rooms == 1 && users == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("directory never dropped the disconnected user")
}

func TestMalformedFramesAreDropped(t *testing.T) {
	_, ts := newTestServer(t)

	alice := dialWS(t, ts)
	bob := dialWS(t, ts)
	joinRoom(t, alice, "ipv6_room_test0000_1", "ipv6_user_alice000_1")
	joinRoom(t, bob, "ipv6_room_test0000_1", "ipv6_user_bob00000_1")
	readMessage(t, alice)

	// Garbage, then a typed message missing its payload. Neither may kill
	// the connection or reach the room.
	alice.WriteMessage(websocket.TextMessage, []byte("not json"))
	alice.WriteJSON(&signaling.Message{Type: signaling.TypeOffer, TargetUserID: "ipv6_user_bob00000_1"})

	err := alice.WriteJSON(&signaling.Message{
		Type:         signaling.TypeOffer,
		TargetUserID: "ipv6_user_bob00000_1",
		Offer:        &signaling.Description{Type: "offer", SDP: "v=0\r\n"},
	})
	if err != nil {
		t.Fatalf("write after garbage: %v", err)
	}
	msg := readMessage(t, bob)
	if msg.Type != signaling.TypeOffer || msg.Offer == nil {
		t.Fatalf("bob got %+v, want the valid offer only", msg)
	}
}
