package model

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateReview     = errors.New("you have already reviewed this seller")
	ErrDuplicateSubscriber = errors.New("email already subscribed")
	ErrRateLimited         = errors.New("too many requests")
	ErrLastSuperAdmin      = errors.New("cannot remove the last super_admin account")
	ErrSelfDelete          = errors.New("cannot delete your own account")
)
