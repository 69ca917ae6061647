package domain

type ChatType string

const (
	ChatDirect ChatType = "dm"
	ChatGroup  ChatType = "group"
)

// DirectMessage is a one-to-one chat notification.
type DirectMessage struct {
	Sender     Identity
	SenderName string
	Receiver   Identity
	Body       string
}

// GroupMessage fans out to every member except the sender.
type GroupMessage struct {
	Sender     Identity
	SenderName string
	GroupName  string
	Members    []Identity
	Body       string
}

// TypingSignal covers both typing and stopTyping.
// Receiver is used for dm, GroupID and Members for group.
type TypingSignal struct {
	ChatType ChatType
	Sender   Identity
	Receiver Identity
	GroupID  string
	Members  []Identity
}

// CallRing starts a call.
type CallRing struct {
	Caller     Identity
	CallerName string
	Callee     Identity
	Channel    string
}

// CallReply resolves a ringing call. Roles are explicit regardless of which
// side sent the event.
type CallReply struct {
	Caller Identity
	Callee Identity
}
