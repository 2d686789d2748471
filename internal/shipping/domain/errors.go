package domain

import "errors"

var (
	ErrMissingConfig = errors.New("shipping_missing_config")
	ErrUnavailable   = errors.New("shipping_unavailable")
	ErrRejected      = errors.New("shipping_rejected")
	ErrNotFound      = errors.New("shipping_not_found")
)
