package media

import (
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

// Capturer produces a new stream for a capture source. Implementations
// report denial or absence of the device through the returned error.
type Capturer interface {
	Capture(kind SourceKind) (*Stream, error)
}

const (
	videoFrameInterval = 40 * time.Millisecond // 25 fps
	audioFrameInterval = 20 * time.Millisecond // one Opus frame
)

// SyntheticCapturer synthesizes VP8/Opus tracks fed by a frame pump. It
// stands in for device capture on headless hosts and in tests; a real
// device capturer plugs in behind the same interface.
type SyntheticCapturer struct{}

// Capture builds the track set for the requested source and starts its
// sample pump. Screen share carries video only, matching the browser's
// getDisplayMedia default.
func (SyntheticCapturer) Capture(kind SourceKind) (*Stream, error) {
	switch kind {
	case SourceCameraMic:
		video, err := newVideoTrack("camera")
		if err != nil {
			return nil, err
		}
		audio, err := newAudioTrack("mic")
		if err != nil {
			return nil, err
		}
		stream := newStream(kind, audio, video)
		go pump(stream)
		return stream, nil

	case SourceScreen:
		video, err := newVideoTrack("screen")
		if err != nil {
			return nil, err
		}
		stream := newStream(kind, video)
		go pump(stream)
		return stream, nil

	default:
		return nil, fmt.Errorf("unknown capture source %d", kind)
	}
}

func newVideoTrack(label string) (*Track, error) {
	local, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"video", label,
	)
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}
	return newTrack(local, TrackVideo), nil
}

func newAudioTrack(label string) (*Track, error) {
	local, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", label,
	)
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}
	return newTrack(local, TrackAudio), nil
}

// pump writes placeholder samples at frame cadence until the stream is
// stopped. Writes to unbound tracks are no-ops inside pion, so the pump
// can start before any peer link attaches the tracks.
func pump(s *Stream) {
	ticker := time.NewTicker(videoFrameInterval)
	defer ticker.Stop()

	frame := make([]byte, 16)
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for _, t := range s.tracks {
				d := videoFrameInterval
				if t.kind == TrackAudio {
					d = audioFrameInterval
				}
				t.WriteSample(pionmedia.Sample{Data: frame, Duration: d})
			}
		}
	}
}
