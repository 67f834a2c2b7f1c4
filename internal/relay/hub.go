// Package relay implements the conference server: the room directory
// REST API and the WebSocket hub that relays signaling between room
// members.
package relay

import (
	"log/slog"

	"github.com/ysxemail003-cpu/ipv6conf/internal/signaling"
)

// inbound pairs a parsed message with the connection it came from.
type inbound struct {
	client *client
	msg    *signaling.Message
}

// Hub routes signaling between room members. A single goroutine owns all
// room and client state; connections talk to it over channels.
type Hub struct {
	directory *Directory

	rooms  map[string]map[*client]struct{}
	byUser map[string]*client

	register   chan *client
	unregister chan *client
	forward    chan inbound
}

func NewHub(directory *Directory) *Hub {
	return &Hub{
		directory:  directory,
		rooms:      make(map[string]map[*client]struct{}),
		byUser:     make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		forward:    make(chan inbound),
	}
}

// Run is the hub's processing loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			slog.Debug("client connected", "remote", c.conn.RemoteAddr())

		case c := <-h.unregister:
			h.dropClient(c, true)
			close(c.send)

		case in := <-h.forward:
			h.route(in.client, in.msg)
		}
	}
}

func (h *Hub) route(c *client, msg *signaling.Message) {
	switch msg.Type {
	case signaling.TypeJoinRoom:
		h.joinRoom(c, msg)
	case signaling.TypeLeaveRoom:
		h.dropClient(c, false)
	case signaling.TypeOffer, signaling.TypeAnswer, signaling.TypeCandidate:
		h.relay(c, msg)
	default:
		slog.Debug("unroutable message", "type", msg.Type, "remote", c.conn.RemoteAddr())
	}
}

func (h *Hub) joinRoom(c *client, msg *signaling.Message) {
	if c.roomID != "" {
		slog.Warn("client joined twice", "user", c.userID, "room", c.roomID)
		return
	}
	c.userID = msg.UserID
	c.roomID = msg.RoomID

	// A stale connection for the same identity is superseded.
	if prev, ok := h.byUser[c.userID]; ok && prev != c {
		h.dropClient(prev, true)
	}
	h.byUser[c.userID] = c

	members, ok := h.rooms[c.roomID]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[c.roomID] = members
	}
	members[c] = struct{}{}

	slog.Info("user joined room", "user", c.userID, "room", c.roomID, "members", len(members))
	h.broadcast(c, &signaling.Message{
		Type:   signaling.TypeUserJoined,
		RoomID: c.roomID,
		UserID: c.userID,
	})
}

// relay forwards a signaling message, stamping the sender's identity so
// the receiving side always knows which peer it came from. Targeted
// messages go to their addressee only.
func (h *Hub) relay(c *client, msg *signaling.Message) {
	if c.roomID == "" {
		slog.Debug("signal from client outside a room", "remote", c.conn.RemoteAddr())
		return
	}
	msg.RoomID = c.roomID
	msg.UserID = c.userID

	if msg.TargetUserID != "" {
		target, ok := h.byUser[msg.TargetUserID]
		if !ok || target.roomID != c.roomID {
			slog.Debug("dropping signal for absent target",
				"from", c.userID, "target", msg.TargetUserID, "type", msg.Type)
			return
		}
		target.deliver(msg)
		return
	}
	h.broadcast(c, msg)
}

func (h *Hub) broadcast(from *client, msg *signaling.Message) {
	for member := range h.rooms[from.roomID] {
		if member != from {
			member.deliver(msg)
		}
	}
}

// dropClient removes a client from its room, tells the room, and syncs
// the directory. disconnected distinguishes a vanished connection from an
// explicit leave; the connection stays usable in the latter case.
func (h *Hub) dropClient(c *client, disconnected bool) {
	if c.roomID == "" {
		return
	}
	roomID, userID := c.roomID, c.userID
	c.roomID = ""

	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		} else {
			left := &signaling.Message{
				Type:   signaling.TypeUserLeft,
				RoomID: roomID,
				UserID: userID,
			}
			for member := range members {
				member.deliver(left)
			}
		}
	}
	if h.byUser[userID] == c {
		delete(h.byUser, userID)
	}
	h.directory.Leave(roomID, userID)
	slog.Info("user left room", "user", userID, "room", roomID, "disconnected", disconnected)
}
