package chat

// ChatRequest is a visitor's question for the portfolio assistant
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

const (
	MessageUnavailable = "Chat service is currently unavailable."
	MessageRequired    = "Message is required."
	MessageFailed      = "I apologize, but I'm having trouble responding right now. Please try again later."
)
