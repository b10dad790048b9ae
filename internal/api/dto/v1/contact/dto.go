package contact

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,looseemail"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// User-facing messages of the send-message endpoint
const (
	MessageSent         = "Your message has been sent successfully!"
	MessageLimitReached = "Oops! Our email service has reached its daily limit. Please try again tomorrow."
	MessageMissingField = "All fields are required."
	MessageInvalidEmail = "Please provide a valid email address."
	MessageSendFailed   = "An error occurred while sending your message. Please try again later."
	MessageCountReset   = "Email count reset."
)
