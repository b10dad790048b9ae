package service

import "errors"

// Sentinel errors for service layer
var (
	ErrValidation         = errors.New("validation error")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstream           = errors.New("upstream failure")
)
