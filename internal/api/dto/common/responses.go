package common

// APIResponse is the standard wrapper for all API responses
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Shared messages
const (
	MessageInvalidBody     = "Invalid request body."
	MessageTooManyRequests = "Too many requests. Please slow down."
	MessageUnauthorized    = "Unauthorized."
	MessageInternalError   = "Internal server error."
)

// NewSuccessResponse creates a new successful API response
func NewSuccessResponse(message string) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
	}
}

// NewDataResponse creates a successful response carrying extra data
func NewDataResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates a new error API response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}
