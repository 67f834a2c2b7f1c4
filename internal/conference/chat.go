package conference

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// chatChannelLabel names the data channel used for in-conference text.
const chatChannelLabel = "chat"

// ChatMessage is the msgpack payload carried on the chat channel.
type ChatMessage struct {
	ID     string    `msgpack:"id"`
	From   string    `msgpack:"from"`
	Body   string    `msgpack:"body"`
	SentAt time.Time `msgpack:"sent_at"`
}

// SendChat broadcasts a text message to every peer whose chat channel is
// open. Peers still negotiating simply miss it.
func (e *Engine) SendChat(body string) {
	msg := ChatMessage{
		ID:     uuid.NewString(),
		From:   e.userID,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
	data, err := msgpack.Marshal(&msg)
	if err != nil {
		slog.Warn("encoding chat message", "error", err)
		return
	}
	e.post(func() {
		for _, s := range e.sessions {
			if s.chat == nil || s.chat.ReadyState() != webrtc.DataChannelStateOpen {
				continue
			}
			if err := s.chat.Send(data); err != nil {
				slog.Warn("sending chat message", "peer", s.userID, "error", err)
			}
		}
	})
}

// wireChat installs the chat channel on a session. Runs on the loop; the
// OnMessage callback posts back in.
func (e *Engine) wireChat(s *session, dc *webrtc.DataChannel) {
	s.chat = dc
	userID := s.userID
	dc.OnMessage(func(raw webrtc.DataChannelMessage) {
		var msg ChatMessage
		if err := msgpack.Unmarshal(raw.Data, &msg); err != nil {
			slog.Warn("decoding chat message", "peer", userID, "error", err)
			return
		}
		e.post(func() {
			if e.sessions[userID] != s {
				return
			}
			e.emit(ChatReceived{From: userID, Message: msg})
		})
	})
}
