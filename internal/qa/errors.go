package qa

import "errors"

// ErrInvalidInput indicates a record is missing required fields.
var ErrInvalidInput = errors.New("invalid input")
