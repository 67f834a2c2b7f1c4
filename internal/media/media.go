// Package media owns the local capture state: at most one live stream
// (camera+mic or screen share) whose tracks are attached to every peer
// link but whose lifecycle is controlled solely here.
package media

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

// SourceKind selects which capture source backs the local stream.
type SourceKind int

const (
	SourceCameraMic SourceKind = iota
	SourceScreen
)

func (k SourceKind) String() string {
	switch k {
	case SourceCameraMic:
		return "camera-and-mic"
	case SourceScreen:
		return "screen-share"
	default:
		return "unknown"
	}
}

// TrackKind distinguishes the audio and video tracks of a stream.
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Track wraps a local sample track with an enable flag. Disabling skips
// sample writes without stopping the track, so the remote peer observes a
// mute rather than a renegotiation.
type Track struct {
	local   *webrtc.TrackLocalStaticSample
	kind    TrackKind
	enabled atomic.Bool
}

func newTrack(local *webrtc.TrackLocalStaticSample, kind TrackKind) *Track {
	t := &Track{local: local, kind: kind}
	t.enabled.Store(true)
	return t
}

// Kind returns whether this is the audio or video track.
func (t *Track) Kind() TrackKind { return t.kind }

// Enabled reports whether samples are currently being forwarded.
func (t *Track) Enabled() bool { return t.enabled.Load() }

// SetEnabled toggles sample forwarding.
func (t *Track) SetEnabled(enabled bool) { t.enabled.Store(enabled) }

// Local exposes the underlying track for attachment to a peer link.
func (t *Track) Local() webrtc.TrackLocal { return t.local }

// WriteSample forwards a captured sample unless the track is disabled.
func (t *Track) WriteSample(s pionmedia.Sample) error {
	if !t.enabled.Load() {
		return nil
	}
	return t.local.WriteSample(s)
}

// Stream is one live capture source and its tracks.
type Stream struct {
	source SourceKind
	tracks []*Track

	stopOnce sync.Once
	stop     chan struct{}
}

func newStream(source SourceKind, tracks ...*Track) *Stream {
	return &Stream{source: source, tracks: tracks, stop: make(chan struct{})}
}

// Source returns the capture source backing this stream.
func (s *Stream) Source() SourceKind { return s.source }

// Tracks returns the stream's tracks.
func (s *Stream) Tracks() []*Track { return s.tracks }

// Track returns the track of the given kind, or nil.
func (s *Stream) Track(kind TrackKind) *Track {
	for _, t := range s.tracks {
		if t.kind == kind {
			return t
		}
	}
	return nil
}

// Stop ends capture for all tracks. Safe to call multiple times.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Controller is the local media controller: it exclusively owns the
// current stream and replaces or releases it atomically.
type Controller struct {
	capturer Capturer

	mu     sync.Mutex
	stream *Stream
}

// NewController creates a controller backed by the given capturer.
func NewController(capturer Capturer) *Controller {
	return &Controller{capturer: capturer}
}

// Acquire captures the requested source and installs it as the current
// stream, stopping any previous one. On capture failure the previous
// stream is left untouched.
func (c *Controller) Acquire(kind SourceKind) (*Stream, error) {
	stream, err := c.capturer.Capture(kind)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	old := c.stream
	c.stream = stream
	c.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	return stream, nil
}

// SetTrackEnabled toggles the enable flag of the current stream's track of
// the given kind. No-op when there is no stream or no such track.
func (c *Controller) SetTrackEnabled(kind TrackKind, enabled bool) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	if stream == nil {
		return
	}
	if t := stream.Track(kind); t != nil {
		t.SetEnabled(enabled)
	}
}

// Release stops the current stream and clears it. Safe to call multiple
// times.
func (c *Controller) Release() {
	c.mu.Lock()
	old := c.stream
	c.stream = nil
	c.mu.Unlock()

	if old != nil {
		old.Stop()
	}
}

// Stream returns the current stream, or nil when none is live.
func (c *Controller) Stream() *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}
