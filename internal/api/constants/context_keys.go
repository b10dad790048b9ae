package constants

// Context keys for validated requests
const (
	ContextKeyContact = "contact"
	ContextKeyChat    = "chat"

	ContextKeyRequestID = "RequestID"
)
