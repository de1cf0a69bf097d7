package storage

import "errors"

var (
	// ErrNotFound indicates the requested user or video does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict indicates a unique constraint was violated on insert.
	ErrConflict = errors.New("storage: conflict")
	// ErrInsufficientFunds indicates a debit would drive a balance below zero.
	ErrInsufficientFunds = errors.New("storage: insufficient funds")
	// ErrEmptyPool indicates the video pool has no entries to sample.
	ErrEmptyPool = errors.New("storage: empty pool")
)
