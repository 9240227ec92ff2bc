// Package store persists users and places. Implementations guarantee that
// every operation invoked with the context handed to a WithTransaction
// callback commits or rolls back together.
package store

import (
	"context"

	"places-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TxFunc is run inside a transaction. It must use the context it receives
// for every store call that should join the transaction.
type TxFunc func(ctx context.Context) error

type Store interface {
	// WithTransaction runs fn atomically. If fn returns an error, or the
	// commit fails, no write made through fn's context is observable.
	// There is no retry.
	WithTransaction(ctx context.Context, fn TxFunc) error

	// InsertUser assigns user.ID when empty. Fails with ErrConflict if the
	// email is taken.
	InsertUser(ctx context.Context, user *models.User) error
	// FindUserByID fails with ErrNotFound.
	FindUserByID(ctx context.Context, id string) (models.User, error)
	// FindUserByEmail returns found=false when no account uses email.
	FindUserByEmail(ctx context.Context, email string) (user models.User, found bool, err error)
	// ListUsers returns all users without password hashes.
	ListUsers(ctx context.Context) ([]models.User, error)
	// AddPlaceToUser appends placeID to the user's place list unless it is
	// already present. Fails with ErrNotFound if the user is missing.
	AddPlaceToUser(ctx context.Context, userID, placeID string) error
	// RemovePlaceFromUser fails with ErrNotFound if the user is missing.
	RemovePlaceFromUser(ctx context.Context, userID, placeID string) error

	// InsertPlace assigns place.ID when empty.
	InsertPlace(ctx context.Context, place *models.Place) error
	FindPlaceByID(ctx context.Context, id string) (models.Place, error)
	// FindPlacesByIDs returns the places that exist, in the order of ids.
	FindPlacesByIDs(ctx context.Context, ids []string) ([]models.Place, error)
	UpdatePlace(ctx context.Context, id, title, description string) (models.Place, error)
	DeletePlace(ctx context.Context, id string) error
}

// NewID returns a fresh document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
