package common

// ChatRequest is the message body Chatwoot posts to the webhook endpoint.
type ChatRequest struct {
	ID           uint         `json:"id"`
	Event        string       `json:"event"`
	Content      string       `json:"content"`
	MessageType  string       `json:"message_type"`
	CreatedAt    int64        `json:"created_at"`
	Conversation Conversation `json:"conversation"`
	Sender       Sender       `json:"sender"`
	Attachments  []Attachment `json:"attachments"`
}

// Conversation identifies the ticket the message belongs to.
type Conversation struct {
	ConversationID uint   `json:"id"`
	AccountID      uint   `json:"account_id"`
	InboxID        uint   `json:"inbox_id"`
	Status         string `json:"status"`
	// Priority as set on the platform: "urgent", "high", "medium", "low"
	// or empty.
	Priority string `json:"priority"`
}

type Sender struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  string `json:"type"` // "contact", "agent_bot", "user"
}

type Attachment struct {
	ID        uint   `json:"id"`
	MessageID uint   `json:"message_id"`
	FileType  string `json:"file_type"`
	DataURL   string `json:"data_url"`
}
