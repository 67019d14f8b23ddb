package bridge

const (
	typeEstablished           = "established"
	typeUnknownMessage        = "unknown-message"
	typeBroadcastSuccess      = "broadcast-success"
	typeClientMessageReceived = "client-message-received"

	welcomeText      = "Connected to LAPLACE Event bridge"
	notRelayedText   = "Message received (client-to-server messages are not relayed)"
	unauthorizedText = "Unauthorized"
)

type established struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	IsServer bool   `json:"isServer"`
	Message  string `json:"message"`
}

type unknownMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

type broadcastSuccess struct {
	Type        string `json:"type"`
	ClientCount int    `json:"clientCount"`
	Timestamp   int64  `json:"timestamp"`
}

type clientMessageReceived struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
