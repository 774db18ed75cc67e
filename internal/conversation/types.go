package conversation

import "time"

// Canonical message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultContentType is used when an export does not say what a message holds.
const DefaultContentType = "text"

// Import is the normalized result of one export payload.
type Import struct {
	Platform string // Display name of the source platform (e.g. "ChatGPT")
	Threads  []Thread
}

// Thread is one normalized conversation.
type Thread struct {
	ExternalID   string // Platform-assigned conversation ID
	Title        string
	Summary      string
	QualityScore *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Messages     []Message // Canonical order; Sequence is 1..len(Messages)
}

// Message is one conversational turn.
type Message struct {
	ExternalID  string
	Role        string // One of RoleUser, RoleAssistant, RoleSystem
	Content     string
	ContentType string
	Timestamp   time.Time
	Sequence    int // 1-based position within the thread
	Attachments []Attachment
}

// Attachment is a file attached to a message, carried with its raw bytes.
type Attachment struct {
	Filename      string
	MimeType      string
	Content       []byte
	ExtractedText string
	// Metadata holds every vendor key that was not mapped to a typed field.
	Metadata map[string]any
}

// MessageCount returns the number of messages in the thread.
func (t Thread) MessageCount() int {
	return len(t.Messages)
}

// TotalTokens returns the sum of the message token estimates.
func (t Thread) TotalTokens() int {
	total := 0
	for _, m := range t.Messages {
		total += m.TokenEstimate()
	}
	return total
}

// TokenEstimate returns the estimated token count of the message content.
func (m Message) TokenEstimate() int {
	return EstimateTokens(m.Content)
}

// HasAttachments reports whether the message carries any attachments.
func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// IsRole reports whether role is one of the canonical roles.
func IsRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
