package domain

import "errors"

// Domain errors shared across adapters and use cases.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrUnknownSentiment = errors.New("unknown sentiment label")
	ErrUnknownPolicy    = errors.New("unknown review policy")
)
