package orch

import "github.com/dkeye/Relay/internal/domain"

// Outbound payload shapes. Field names are part of the wire contract.

// GroupName is set for group notifications only, even when empty.
type NotificationPayload struct {
	SenderName string          `json:"senderName"`
	Message    string          `json:"message"`
	GroupName  *string         `json:"groupName,omitempty"`
	Type       domain.ChatType `json:"type"`
}

type TypingPayload struct {
	Sender  domain.Identity `json:"sender"`
	GroupID string          `json:"groupId,omitempty"`
}

type IncomingCallPayload struct {
	Sender     domain.Identity `json:"sender"`
	SenderName string          `json:"senderName"`
	Channel    string          `json:"channel"`
	Type       string          `json:"type"`
	CallID     domain.CallID   `json:"callId"`
}

// CallReplyPayload keeps the observed field naming: Sender is whoever sent
// the resolution, Receiver the party it is addressed to.
type CallReplyPayload struct {
	Sender   domain.Identity `json:"sender"`
	Receiver domain.Identity `json:"receiver"`
}

type CallFailedPayload struct {
	Receiver domain.Identity `json:"receiver"`
	Reason   string          `json:"reason"`
}

// MediaPayload carries WebRTC offer/answer/candidate between call parties.
type MediaPayload struct {
	Sender        domain.Identity `json:"sender"`
	Receiver      domain.Identity `json:"receiver"`
	SDP           string          `json:"sdp,omitempty"`
	Candidate     string          `json:"candidate,omitempty"`
	SDPMid        *string         `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16         `json:"sdpMLineIndex,omitempty"`
}

const callTypeVoice = "voice"
