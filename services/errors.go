package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyContent    = errors.New("content is empty")
	ErrInvalidTarget   = errors.New("invalid follow target")
	ErrUnknownEvent    = errors.New("unknown notification event")
	ErrNotMentor       = errors.New("user is not a mentor")
	ErrNotApprover     = errors.New("user is not an approver for this mentor")
	ErrAlreadyReviewed = errors.New("evidence already reviewed by this approver")
	ErrNoEvidence      = errors.New("mentor has not submitted evidence")
	ErrUserExists      = errors.New("user already registered")
)
