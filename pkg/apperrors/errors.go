package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidPrinciple = errors.New("invalid principle")
	ErrValidation       = errors.New("validation failed")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAssigned      = errors.New("user is not assigned to project")
	ErrLLMUnavailable   = errors.New("report generation is not configured")
)
