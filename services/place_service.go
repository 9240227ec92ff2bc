package services

import (
	"context"

	"places-api/logger"
	"places-api/models"
	"places-api/store"
	apierrors "places-api/utils/errors"
)

type PlaceService struct {
	store    store.Store
	geocoder Geocoder
	cleaner  *ImageCleaner
	log      *logger.Logger
}

type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	CreatorID   string
	Image       string // reference returned by the blob store
}

func NewPlaceService(s store.Store, geocoder Geocoder, cleaner *ImageCleaner, log *logger.Logger) *PlaceService {
	return &PlaceService{
		store:    s,
		geocoder: geocoder,
		cleaner:  cleaner,
		log:      log.With("service", "PlaceService"),
	}
}

// CreatePlace geocodes the address, then inserts the place and links it to
// its creator in one transaction. On any failure the already uploaded image
// is discarded.
func (s *PlaceService) CreatePlace(ctx context.Context, in CreatePlaceInput) (models.Place, error) {
	place, err := s.createPlace(ctx, in)
	if err != nil {
		s.cleaner.Discard(ctx, in.Image)
		return models.Place{}, err
	}
	s.log.Info("Place created", "place_id", place.ID, "creator", place.Creator)
	return place, nil
}

func (s *PlaceService) createPlace(ctx context.Context, in CreatePlaceInput) (models.Place, error) {
	location, err := s.geocoder.Resolve(ctx, in.Address)
	if err != nil {
		return models.Place{}, err
	}

	if _, err := s.store.FindUserByID(ctx, in.CreatorID); err != nil {
		return models.Place{}, err
	}

	place := models.Place{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Location:    location,
		Image:       in.Image,
		Creator:     in.CreatorID,
	}
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertPlace(ctx, &place); err != nil {
			return err
		}
		return s.store.AddPlaceToUser(ctx, in.CreatorID, place.ID)
	})
	if err != nil {
		return models.Place{}, txError(err, "Creating place failed, please try again.")
	}
	return place, nil
}

func (s *PlaceService) GetPlaceByID(ctx context.Context, id string) (models.Place, error) {
	return s.store.FindPlaceByID(ctx, id)
}

// GetPlacesByUser returns the user's places in the order they were added.
func (s *PlaceService) GetPlacesByUser(ctx context.Context, userID string) ([]models.Place, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.ErrNotFound.WithMessage("Could not find places for the provided user id.")
		}
		return nil, err
	}
	return s.store.FindPlacesByIDs(ctx, user.Places)
}

func (s *PlaceService) UpdatePlace(ctx context.Context, id, requesterID, title, description string) (models.Place, error) {
	place, err := s.store.FindPlaceByID(ctx, id)
	if err != nil {
		return models.Place{}, err
	}
	if place.Creator != requesterID {
		return models.Place{}, apierrors.ErrForbidden.WithMessage("You are not allowed to edit this place.")
	}
	return s.store.UpdatePlace(ctx, id, title, description)
}

// DeletePlace removes the place and its entry in the owner's list in one
// transaction. The image is deleted afterwards in the background.
func (s *PlaceService) DeletePlace(ctx context.Context, id, requesterID string) error {
	place, err := s.store.FindPlaceByID(ctx, id)
	if err != nil {
		return err
	}
	if place.Creator != requesterID {
		return apierrors.ErrForbidden.WithMessage("You are not allowed to delete this place.")
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.DeletePlace(ctx, id); err != nil {
			return err
		}
		return s.store.RemovePlaceFromUser(ctx, place.Creator, id)
	})
	if err != nil {
		return txError(err, "Something went wrong, could not delete place.")
	}

	s.log.Info("Place deleted", "place_id", id, "creator", place.Creator)
	s.cleaner.Discard(ctx, place.Image)
	return nil
}

// txError keeps domain errors raised inside a transaction and turns anything
// else into a persistence error.
func txError(err error, message string) error {
	if apiErr, ok := apierrors.As(err); ok && !apierrors.Is(apiErr, apierrors.ErrPersistence) {
		return apiErr
	}
	return apierrors.ErrPersistence.WithMessage(message).WithCause(err)
}
