package domain

import "errors"

var (
	ErrCredentialNotFound  = errors.New("credential not found")
	ErrCredentialExists    = errors.New("credential already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrKeyNotFound         = errors.New("key not found")
	ErrNoActiveCredentials = errors.New("no active credentials")
)
