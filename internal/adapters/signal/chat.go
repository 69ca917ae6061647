package signal

import (
	"encoding/json"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type sendMessageWire struct {
	Sender     string `json:"sender"`
	SenderName string `json:"senderName"`
	Receiver   string `json:"receiver"`
	Message    string `json:"message"`
}

type groupMessageWire struct {
	Sender     string   `json:"sender"`
	SenderName string   `json:"senderName"`
	GroupName  string   `json:"groupName"`
	Members    []string `json:"members"`
	Message    string   `json:"message"`
}

type typingWire struct {
	ChatType string   `json:"chatType"`
	Sender   string   `json:"sender"`
	Receiver string   `json:"receiver"`
	GroupID  string   `json:"groupId"`
	Members  []string `json:"members"`
}

func (ctl *SignalWSController) handleSendMessage(c *WsSignalConn, data json.RawMessage) {
	var w sendMessageWire
	if !ctl.decode(c, core.EventSendMessage, data, &w) {
		return
	}
	sender, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	receiver, ok := ctl.identity(c, "receiver", w.Receiver)
	if !ok {
		return
	}
	res := ctl.Orch.SendMessage(domain.DirectMessage{
		Sender:     sender,
		SenderName: w.SenderName,
		Receiver:   receiver,
		Body:       w.Message,
	})
	log.Debug().Str("module", "signal").Str("sender", sender.String()).Str("receiver", receiver.String()).Int("sent_to", res.SendTo).Msg("message routed")
}

func (ctl *SignalWSController) handleSendGroupMessage(c *WsSignalConn, data json.RawMessage) {
	var w groupMessageWire
	if !ctl.decode(c, core.EventSendGroupMessage, data, &w) {
		return
	}
	sender, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	res := ctl.Orch.SendGroupMessage(domain.GroupMessage{
		Sender:     sender,
		SenderName: w.SenderName,
		GroupName:  w.GroupName,
		Members:    ctl.identities(w.Members),
		Body:       w.Message,
	})
	log.Debug().Str("module", "signal").Str("sender", sender.String()).Str("group", w.GroupName).Int("sent_to", res.SendTo).Int("offline", res.Offline).Msg("group message routed")
}

func (ctl *SignalWSController) handleTyping(c *WsSignalConn, event string, data json.RawMessage) {
	var w typingWire
	if !ctl.decode(c, event, data, &w) {
		return
	}
	sender, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	s := domain.TypingSignal{
		ChatType: domain.ChatType(w.ChatType),
		Sender:   sender,
		GroupID:  w.GroupID,
		Members:  ctl.identities(w.Members),
	}
	if s.ChatType == domain.ChatDirect {
		if s.Receiver, ok = ctl.identity(c, "receiver", w.Receiver); !ok {
			return
		}
	}
	if event == core.EventStopTyping {
		ctl.Orch.StopTyping(s)
		return
	}
	ctl.Orch.Typing(s)
}
