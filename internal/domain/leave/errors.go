package leave

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrInvalidUnits        = errors.New("leave units must be non-negative")
	ErrUnknownBucket       = errors.New("unknown leave bucket")
)
