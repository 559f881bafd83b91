package models

import "errors"

// Storage-level errors returned by repositories.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrStaleState = errors.New("record changed concurrently")
	ErrDuplicate  = errors.New("duplicate record")
)
