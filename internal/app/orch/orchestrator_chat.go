package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) SendMessage(m domain.DirectMessage) core.PublishResult {
	res := o.sendTo(m.Receiver, core.EventNotification, NotificationPayload{
		SenderName: m.SenderName,
		Message:    m.Body,
		Type:       domain.ChatDirect,
	})
	log.Debug().Str("module", "orch").Str("sender", m.Sender.String()).Str("receiver", m.Receiver.String()).Int("sent_to", res.SendTo).Msg("direct message")
	return res
}

func (o *Orchestrator) SendGroupMessage(m domain.GroupMessage) core.PublishResult {
	res := o.fanOut(m.Sender, m.Members, core.EventNotification, NotificationPayload{
		SenderName: m.SenderName,
		Message:    m.Body,
		GroupName:  &m.GroupName,
		Type:       domain.ChatGroup,
	})
	log.Debug().Str("module", "orch").Str("sender", m.Sender.String()).Str("group", m.GroupName).Int("sent_to", res.SendTo).Int("offline", res.Offline).Msg("group message")
	return res
}

func (o *Orchestrator) Typing(s domain.TypingSignal) core.PublishResult {
	switch s.ChatType {
	case domain.ChatDirect:
		return o.sendTo(s.Receiver, core.EventTyping, TypingPayload{Sender: s.Sender})
	case domain.ChatGroup:
		if len(s.Members) == 0 {
			log.Info().Str("module", "orch").Str("group", s.GroupID).Msg("typing: no members for group")
			return core.PublishResult{}
		}
		return o.fanOut(s.Sender, s.Members, core.EventTyping, TypingPayload{Sender: s.Sender, GroupID: s.GroupID})
	}
	log.Warn().Str("module", "orch").Str("chat_type", string(s.ChatType)).Msg("typing: unknown chat type")
	return core.PublishResult{}
}

// StopTyping sends a bare stopTyping event.
func (o *Orchestrator) StopTyping(s domain.TypingSignal) core.PublishResult {
	switch s.ChatType {
	case domain.ChatDirect:
		return o.sendTo(s.Receiver, core.EventStopTyping, nil)
	case domain.ChatGroup:
		if len(s.Members) == 0 {
			log.Info().Str("module", "orch").Str("group", s.GroupID).Msg("stopTyping: no members for group")
			return core.PublishResult{}
		}
		return o.fanOut(s.Sender, s.Members, core.EventStopTyping, nil)
	}
	log.Warn().Str("module", "orch").Str("chat_type", string(s.ChatType)).Msg("stopTyping: unknown chat type")
	return core.PublishResult{}
}
