package domain

import "errors"

var (
	// Not-found errors
	ErrQueueNotFound   = errors.New("queue does not exist")
	ErrMessageNotFound = errors.New("message does not exist")
	ErrClaimNotFound   = errors.New("claim does not exist")

	// Permission errors
	ErrClaimNotPermitted = errors.New("claim does not cover this message")

	// Validation errors
	ErrInvalidTTL   = errors.New("ttl must be a positive integer producing a future expiration")
	ErrInvalidLimit = errors.New("limit must be a non-negative integer")
)
