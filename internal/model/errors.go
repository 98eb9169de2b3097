package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenInvalid = errors.New("token invalid")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Artifact related errors
	ErrProductNotFound = errors.New("product not found")
	ErrObjectNotFound  = errors.New("object not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
