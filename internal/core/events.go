package core

// Inbound event names.
const (
	EventRegister         = "register"
	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "sendGroupMessage"
	EventPing             = "ping"
)

// Outbound event names.
const (
	EventNotification = "notification"
	EventCallFailed   = "callFailed"
	EventPong         = "pong"
)

// Names shared by both directions.
const (
	EventTyping       = "typing"
	EventStopTyping   = "stopTyping"
	EventIncomingCall = "incomingCall"
	EventCallAccepted = "callAccepted"
	EventCallRejected = "callRejected"
	EventCallCanceled = "callCanceled"
	EventCallOffer    = "callOffer"
	EventCallAnswer   = "callAnswer"
	EventICECandidate = "iceCandidate"
)
