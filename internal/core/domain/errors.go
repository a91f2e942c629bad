package domain

import "errors"

var (
	ErrQueueNotFound = errors.New("queue not found")
	ErrItemNotFound  = errors.New("queue item not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrLockTimeout   = errors.New("queue lock acquisition timeout")
)
