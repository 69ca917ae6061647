package signal

import (
	"encoding/json"

	"github.com/dkeye/Relay/internal/adapters/rtc"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type mediaWire struct {
	Sender        string  `json:"sender"`
	Receiver      string  `json:"receiver"`
	SDP           string  `json:"sdp"`
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

func (ctl *SignalWSController) handleOffer(c *WsSignalConn, data json.RawMessage) {
	ctl.relayDescription(c, core.EventCallOffer, webrtc.SDPTypeOffer, data)
}

func (ctl *SignalWSController) handleAnswer(c *WsSignalConn, data json.RawMessage) {
	ctl.relayDescription(c, core.EventCallAnswer, webrtc.SDPTypeAnswer, data)
}

func (ctl *SignalWSController) relayDescription(c *WsSignalConn, event string, want webrtc.SDPType, data json.RawMessage) {
	var w mediaWire
	if !ctl.decode(c, event, data, &w) {
		return
	}
	if _, err := rtc.ParseDescription(want, w.SDP); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Str("event", event).Msg("invalid sdp")
		return
	}
	ctl.relayMedia(c, event, w, orch.MediaPayload{SDP: w.SDP})
}

func (ctl *SignalWSController) handleCandidate(c *WsSignalConn, data json.RawMessage) {
	var w mediaWire
	if !ctl.decode(c, core.EventICECandidate, data, &w) {
		return
	}
	if _, err := rtc.ParseCandidate(w.Candidate, w.SDPMid, w.SDPMLineIndex); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("invalid candidate")
		return
	}
	ctl.relayMedia(c, core.EventICECandidate, w, orch.MediaPayload{
		Candidate:     w.Candidate,
		SDPMid:        w.SDPMid,
		SDPMLineIndex: w.SDPMLineIndex,
	})
}

func (ctl *SignalWSController) relayMedia(c *WsSignalConn, event string, w mediaWire, p orch.MediaPayload) {
	sender, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	receiver, ok := ctl.identity(c, "receiver", w.Receiver)
	if !ok {
		return
	}
	p.Sender, p.Receiver = sender, receiver
	ctl.Orch.RelayMedia(event, p)
}
