package service

import "errors"

var (
	// ErrDuplicateUsername is returned by Register when the username is taken.
	ErrDuplicateUsername = errors.New("username already registered")
	// ErrPasswordTooLong is returned by Register when the password exceeds what the hasher accepts.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when no valid identity backs the call.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the addressed todo does not exist.
	ErrNotFound = errors.New("todo not found")
)
