package service

import (
	"context"
	"errors"

	"github.com/sakif/bookmarks/internal/apperror"
)

// ownedRecord is what authorizeOwner needs from a looked-up row.
type ownedRecord interface {
	OwnerID() int64
}

// authorizeOwner runs the delete protocol shared by folders and bookmarks:
//
//	lookup  → missing?         → NOT_FOUND
//	        → someone else's?  → FORBIDDEN
//	remove  → already gone?    → NOT_FOUND
//
// Not-found is decided before ownership, so a caller probing ids learns
// nothing about records they do not own. A row that disappears between the
// lookup and the delete is reported as the same 404.
func authorizeOwner[T ownedRecord](
	ctx context.Context,
	resource string,
	callerID int64,
	lookup func(context.Context) (T, error),
	remove func(context.Context) error,
) (T, error) {
	rec, err := lookup(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, apperror.ErrNotFound) {
			return zero, notFound(resource)
		}
		return zero, err
	}

	if rec.OwnerID() != callerID {
		var zero T
		return zero, apperror.Forbidden("Forbidden: cannot delete another user's " + lowerFirst(resource))
	}

	if err := remove(ctx); err != nil {
		var zero T
		if errors.Is(err, apperror.ErrNotFound) {
			return zero, notFound(resource)
		}
		return zero, err
	}
	return rec, nil
}

func notFound(resource string) *apperror.AppError {
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: resource + " not found"}
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
