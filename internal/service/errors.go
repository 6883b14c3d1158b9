package service

import "errors"

var (
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUserNotFound is returned by Login and Me for unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash without truncation.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	// ErrInvalidPassword indicates the password does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrTaskRequired is returned when a todo is created without text.
	ErrTaskRequired = errors.New("task is required and must be a string")
	// ErrTodoNotFound conflates missing and foreign todos so ids of other users never leak.
	ErrTodoNotFound = errors.New("todo not found or unauthorized")
)
