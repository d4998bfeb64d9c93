package realtime

const (
	TypeConnected   = "connected"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
)

// ClientMessage is the optional JSON shape of incoming text frames.
// Frames that do not decode are logged and ignored.
type ClientMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
}

// ServerEvent is a control event pushed by the server.
type ServerEvent struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId,omitempty"`
}

func NewConnectedEvent(clientID string) *ServerEvent {
	return &ServerEvent{
		Type:     TypeConnected,
		ClientID: clientID,
	}
}
