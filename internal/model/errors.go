package model

import "errors"

// ErrValidation is returned when an entity cannot be constructed from the
// given fields (missing required field or malformed identifier).
var ErrValidation = errors.New("validation failed")
