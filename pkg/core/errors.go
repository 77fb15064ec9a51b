package core

import "errors"

// Common errors.
var (
	ErrReadOnly         = errors.New("store is in read-only mode")
	ErrNotFound         = errors.New("room document not found")
	ErrEmptyRoom        = errors.New("room identifier cannot be empty")
	ErrConflict         = errors.New("patch does not apply to the stored document")
	ErrNotWatchable     = errors.New("store does not support watching")
	ErrNotPatchable     = errors.New("store does not support path writes")
	ErrAlreadyConnected = errors.New("session is already connected to a room")
	ErrNotConnected     = errors.New("session is not connected to a room")
	ErrClosed           = errors.New("session is closed")
)
