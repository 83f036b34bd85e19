package shop

import "errors"

var (
	ErrMissingID   = errors.New("shop id is required")
	ErrMissingName = errors.New("shop name is required")
	ErrMissingType = errors.New("shop type is required")
)
