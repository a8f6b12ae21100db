package attest

const (
	// API hosts
	MainnetURL = "https://iris-api.circle.com"
	SandboxURL = "https://iris-api-sandbox.circle.com"

	// Rate limiting
	MaxRequestsPerSecond = 35

	// Attestation statuses
	StatusPending  = "pending_confirmations"
	StatusComplete = "complete"
)

// MessagesResponse is the response from the messages endpoint
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// Message is a single bridge message with its attestation
type Message struct {
	Attestation string `json:"attestation"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	EventNonce  string `json:"eventNonce"`
	CCTPVersion int    `json:"cctpVersion"`
}
