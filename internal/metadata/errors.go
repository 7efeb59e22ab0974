package metadata

import "errors"

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownChildKey = errors.New("unknown child element key")
	ErrDuplicateKey    = errors.New("duplicate element key")
)
