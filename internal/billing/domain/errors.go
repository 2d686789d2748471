package domain

import "errors"

var (
	ErrMissingConfig = errors.New("billing_missing_config")
	ErrUnavailable   = errors.New("billing_unavailable")
	ErrRejected      = errors.New("billing_rejected")
	ErrNotFound      = errors.New("billing_not_found")
)
