package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrNotFound indicates that a referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable indicates a transient document store failure.
	// Callers may retry with backoff.
	ErrUnavailable = errors.New("document store unavailable")
)

// wrapErr maps driver errors onto the typed errors of this package.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}
