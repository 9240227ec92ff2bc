package services

import (
	"context"
	"errors"
	"sync"

	"places-api/models"
	"places-api/store"
	apierrors "places-api/utils/errors"
)

type fakeGeocoder struct {
	loc models.Location
	err error
}

func (f *fakeGeocoder) Resolve(context.Context, string) (models.Location, error) {
	return f.loc, f.err
}

type fakeBlobStore struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeBlobStore) Upload(_ context.Context, _ []byte, mimeType string) (string, error) {
	return "https://cdn.test/" + mimeType, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

func (f *fakeBlobStore) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

var errInjected = errors.New("injected failure")

// faultyStore wraps a MemoryStore and fails selected operations.
type faultyStore struct {
	*store.MemoryStore
	failAddPlace    bool
	failRemovePlace bool
	failFindUser    bool

	insertedPlaces []string
}

func (f *faultyStore) InsertPlace(ctx context.Context, place *models.Place) error {
	if err := f.MemoryStore.InsertPlace(ctx, place); err != nil {
		return err
	}
	f.insertedPlaces = append(f.insertedPlaces, place.ID)
	return nil
}

func (f *faultyStore) AddPlaceToUser(ctx context.Context, userID, placeID string) error {
	if f.failAddPlace {
		return errInjected
	}
	return f.MemoryStore.AddPlaceToUser(ctx, userID, placeID)
}

func (f *faultyStore) RemovePlaceFromUser(ctx context.Context, userID, placeID string) error {
	if f.failRemovePlace {
		return apierrors.ErrPersistence.WithCause(errInjected)
	}
	return f.MemoryStore.RemovePlaceFromUser(ctx, userID, placeID)
}

func (f *faultyStore) FindUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	if f.failFindUser {
		return models.User{}, false, apierrors.ErrPersistence.WithCause(errInjected)
	}
	return f.MemoryStore.FindUserByEmail(ctx, email)
}
