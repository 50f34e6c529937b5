package push

import "errors"

var (
	ErrInvalidWhitelist = errors.New("invalid push whitelist regex")
	ErrInvalidRequest   = errors.New("invalid push request")
)
