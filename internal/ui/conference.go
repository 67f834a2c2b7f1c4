package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ysxemail003-cpu/ipv6conf/internal/conference"
	"github.com/ysxemail003-cpu/ipv6conf/internal/media"
)

const chatScrollback = 100

// Controls is the slice of the engine the view is allowed to drive.
type Controls interface {
	SetTrackEnabled(kind media.TrackKind, enabled bool)
	SetSource(kind media.SourceKind)
	SendChat(body string)
}

type engineEvent struct{ ev conference.Event }

type engineClosed struct{}

type participantRow struct {
	userID string
	state  conference.State
	link   conference.LinkState
	tracks []string
}

type chatLine struct {
	from string
	body string
}

// ConferenceModel is the live in-room view: participant table, chat log,
// and local media toggles.
type ConferenceModel struct {
	controls Controls
	events   <-chan conference.Event

	roomID string
	userID string

	rows  map[string]*participantRow
	order []string

	chat      []chatLine
	input     textinput.Model
	typing    bool
	spinner   spinner.Model
	audioOn   bool
	videoOn   bool
	screen    bool
	mediaLive bool
	relayLost bool
	lastErr   string
	quitting  bool
}

// NewConferenceModel builds the in-room view for a joined conference.
func NewConferenceModel(controls Controls, events <-chan conference.Event, roomID, userID string) *ConferenceModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "message"
	input.CharLimit = 500
	input.Width = 50

	return &ConferenceModel{
		controls: controls,
		events:   events,
		roomID:   roomID,
		userID:   userID,
		rows:     make(map[string]*participantRow),
		input:    input,
		spinner:  s,
		audioOn:  true,
		videoOn:  true,
	}
}

// RunConference runs the in-room view until the user quits or the engine
// shuts down.
func RunConference(controls Controls, events <-chan conference.Event, roomID, userID string) error {
	p := tea.NewProgram(NewConferenceModel(controls, events, roomID, userID))
	_, err := p.Run()
	return err
}

func (m *ConferenceModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m *ConferenceModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return engineClosed{}
		}
		return engineEvent{ev: ev}
	}
}

func (m *ConferenceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.updateTyping(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "a":
			m.audioOn = !m.audioOn
			m.controls.SetTrackEnabled(media.TrackAudio, m.audioOn)
		case "v":
			m.videoOn = !m.videoOn
			m.controls.SetTrackEnabled(media.TrackVideo, m.videoOn)
		case "s":
			m.screen = !m.screen
			if m.screen {
				m.controls.SetSource(media.SourceScreen)
			} else {
				m.controls.SetSource(media.SourceCameraMic)
			}
		case "t", "enter":
			m.typing = true
			m.input.Focus()
			cmds = append(cmds, textinput.Blink)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case engineEvent:
		m.apply(msg.ev)
		cmds = append(cmds, m.waitForEvent())

	case engineClosed:
		m.quitting = true
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

func (m *ConferenceModel) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case "enter":
		body := strings.TrimSpace(m.input.Value())
		if body != "" {
			m.controls.SendChat(body)
			m.appendChat("you", body)
		}
		m.typing = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ConferenceModel) apply(ev conference.Event) {
	switch ev := ev.(type) {
	case conference.ParticipantJoined:
		if _, ok := m.rows[ev.UserID]; !ok {
			m.rows[ev.UserID] = &participantRow{userID: ev.UserID}
			m.order = append(m.order, ev.UserID)
			sort.Strings(m.order)
		}

	case conference.ParticipantLeft:
		delete(m.rows, ev.UserID)
		for i, id := range m.order {
			if id == ev.UserID {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}

	case conference.SessionStateChanged:
		if row, ok := m.rows[ev.UserID]; ok {
			row.state = ev.State
		}

	case conference.LinkStateChanged:
		if row, ok := m.rows[ev.UserID]; ok {
			row.link = ev.Link
		}

	case conference.RemoteTrackAdded:
		if row, ok := m.rows[ev.UserID]; ok {
			row.tracks = append(row.tracks, ev.Kind)
		}

	case conference.LocalMediaChanged:
		m.mediaLive = ev.Live
		if ev.Live {
			m.screen = ev.Source == media.SourceScreen
		}

	case conference.ChatReceived:
		m.appendChat(shortID(ev.From), ev.Message.Body)

	case conference.ErrorOccurred:
		if conference.IsKind(ev.Err, conference.KindRelayDisconnected) {
			m.relayLost = true
		}
		m.lastErr = ev.Err.Error()

	case conference.PhaseChanged:
		if ev.Phase == conference.PhaseConfiguring {
			m.quitting = true
		}
	}
}

func (m *ConferenceModel) appendChat(from, body string) {
	m.chat = append(m.chat, chatLine{from: from, body: body})
	if len(m.chat) > chatScrollback {
		m.chat = m.chat[len(m.chat)-chatScrollback:]
	}
}

// shortID trims the identifier down to its random portion for display.
func shortID(userID string) string {
	parts := strings.Split(userID, "_")
	if len(parts) >= 3 {
		return parts[2]
	}
	return userID
}

func (m *ConferenceModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s %s", IconRoom, m.roomID)))
	b.WriteString("\n")

	// Local media line
	mic := IconMic
	if !m.audioOn {
		mic = IconMutedAV
	}
	cam := IconCamera
	source := "camera"
	if m.screen {
		cam = IconScreen
		source = "screen"
	}
	if !m.videoOn {
		cam = IconMutedAV
	}
	status := fmt.Sprintf("%s %s  %s %s", mic, onOff(m.audioOn), cam, source)
	if !m.mediaLive {
		status = m.spinner.View() + " acquiring media..."
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", IconPeer, status))

	// Participants
	if len(m.order) == 0 {
		b.WriteString(MutedStyle.Render(m.spinner.View()+" waiting for participants...") + "\n")
	}
	for _, id := range m.order {
		row := m.rows[id]
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			stateIcon(row.state),
			BoldStyle.Render(shortID(id)),
			stateLabel(row.state),
			MutedStyle.Render(strings.Join(row.tracks, "+")),
		))
	}

	// Chat
	if len(m.chat) > 0 {
		b.WriteString("\n" + BoldStyle.Render(IconChat+" chat") + "\n")
		start := 0
		if len(m.chat) > 8 {
			start = len(m.chat) - 8
		}
		for _, line := range m.chat[start:] {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				MutedStyle.Render(line.from+":"),
				truncateString(line.body, 70),
			))
		}
	}

	if m.typing {
		b.WriteString("\n" + m.input.View() + "\n")
	}

	if m.relayLost {
		b.WriteString("\n" + WarningStyle.Render(IconWarning+" signaling lost, existing links keep running") + "\n")
	} else if m.lastErr != "" {
		b.WriteString("\n" + ErrorStyle.Render(truncateString(m.lastErr, 70)) + "\n")
	}

	b.WriteString(FooterStyle.Render("a audio • v video • s screen • t chat • q leave"))
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func stateIcon(s conference.State) string {
	switch s {
	case conference.StateConnected, conference.StateConnectedPending:
		return SuccessStyle.Render("●")
	case conference.StateFailed, conference.StateClosed:
		return ErrorStyle.Render("●")
	default:
		return WarningStyle.Render("●")
	}
}

func stateLabel(s conference.State) string {
	switch s {
	case conference.StateConnected:
		return SuccessStyle.Render(s.String())
	case conference.StateFailed:
		return ErrorStyle.Render(s.String())
	default:
		return MutedStyle.Render(s.String())
	}
}

var _ tea.Model = (*ConferenceModel)(nil)
