// Package rtc holds the WebRTC pieces the relay needs: the ICE server list
// handed to clients and validation of relayed SDP and ICE candidates. Media
// never passes through the relay.
package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Relay/internal/config"
	"github.com/pion/ice/v4"
	"github.com/pion/webrtc/v4"
)

var (
	ErrBadSDPType   = errors.New("unsupported sdp type")
	ErrBadSDP       = errors.New("malformed sdp")
	ErrBadCandidate = errors.New("malformed ice candidate")
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// ICEConfiguration converts configured ICE servers. Entries without URLs
// are skipped; an empty result falls back to DefaultWebRTCConfig.
func ICEConfiguration(servers []config.ICEServer) webrtc.Configuration {
	out := webrtc.Configuration{}
	for _, s := range servers {
		if len(s.URLs) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: append([]string(nil), s.URLs...), Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out.ICEServers = append(out.ICEServers, srv)
	}
	if len(out.ICEServers) == 0 {
		return DefaultWebRTCConfig()
	}
	return out
}

// ParseDescription checks that raw is a parseable SDP of the wanted type.
func ParseDescription(want webrtc.SDPType, raw string) (webrtc.SessionDescription, error) {
	if want != webrtc.SDPTypeOffer && want != webrtc.SDPTypeAnswer {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %s", ErrBadSDPType, want)
	}
	sd := webrtc.SessionDescription{Type: want, SDP: raw}
	if strings.TrimSpace(raw) == "" {
		return sd, fmt.Errorf("%w: empty", ErrBadSDP)
	}
	if _, err := sd.Unmarshal(); err != nil {
		return sd, fmt.Errorf("%w: %w", ErrBadSDP, err)
	}
	return sd, nil
}

// ParseCandidate builds an ICECandidateInit after parsing the candidate
// line with pion/ice. An empty candidate is the end-of-candidates marker and
// is accepted.
func ParseCandidate(candidate string, sdpMid *string, sdpMLineIndex *uint16) (webrtc.ICECandidateInit, error) {
	c := strings.TrimSpace(candidate)
	if c != "" {
		line := strings.TrimPrefix(c, "a=")
		if !strings.HasPrefix(line, "candidate:") {
			return webrtc.ICECandidateInit{}, fmt.Errorf("%w: %q", ErrBadCandidate, candidate)
		}
		if _, err := ice.UnmarshalCandidate(line); err != nil {
			return webrtc.ICECandidateInit{}, fmt.Errorf("%w: %w", ErrBadCandidate, err)
		}
		if sdpMid == nil && sdpMLineIndex == nil {
			return webrtc.ICECandidateInit{}, fmt.Errorf("%w: sdpMid or sdpMLineIndex required", ErrBadCandidate)
		}
	}
	return webrtc.ICECandidateInit{Candidate: c, SDPMid: sdpMid, SDPMLineIndex: sdpMLineIndex}, nil
}
