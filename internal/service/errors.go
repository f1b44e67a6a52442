package service

import "errors"

// ErrExternalService is returned when a call to the payment provider fails.
// Callers can distinguish it from persistence failures with errors.Is.
var ErrExternalService = errors.New("external service call failed")
