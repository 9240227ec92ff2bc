package store

import (
	"context"
	"errors"
	"testing"

	"places-api/models"
	apierrors "places-api/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find user by id", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "places_test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "name", Value: "A"},
			{Key: "email", Value: "a@x.com"},
			{Key: "places", Value: bson.A{"p1", "p2"}},
		}))

		u, err := s.FindUserByID(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "a@x.com", u.Email)
		assert.Equal(mt, []string{"p1", "p2"}, u.Places)
	})

	mt.Run("find user by id not found", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "places_test.users", mtest.FirstBatch))

		_, err := s.FindUserByID(ctx, "missing")
		assert.ErrorIs(mt, err, apierrors.ErrNotFound)
	})

	mt.Run("find user by email absent", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "places_test.users", mtest.FirstBatch))

		_, found, err := s.FindUserByEmail(ctx, "nobody@x.com")
		require.NoError(mt, err)
		assert.False(mt, found)
	})

	mt.Run("insert user duplicate email", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		u := models.User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
		err := s.InsertUser(ctx, &u)
		require.ErrorIs(mt, err, apierrors.ErrConflict)
		apiErr, ok := apierrors.As(err)
		require.True(mt, ok)
		assert.Empty(mt, apiErr.Details)
		assert.NotContains(mt, apiErr.Error(), "duplicate key")
	})

	mt.Run("insert user assigns id", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := models.User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
		require.NoError(mt, s.InsertUser(ctx, &u))
		assert.NotEmpty(mt, u.ID)
		assert.NotNil(mt, u.Places)
	})

	mt.Run("add place to missing user", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.AddPlaceToUser(ctx, "missing", "p1")
		assert.ErrorIs(mt, err, apierrors.ErrNotFound)
	})

	mt.Run("delete place", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		require.NoError(mt, s.DeletePlace(ctx, "p1"))
		assert.ErrorIs(mt, s.DeletePlace(ctx, "p1"), apierrors.ErrNotFound)
	})

	mt.Run("find places keeps requested order", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "places_test.places", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "p1"}, {Key: "title", Value: "first"}},
			bson.D{{Key: "_id", Value: "p2"}, {Key: "title", Value: "second"}},
		))

		places, err := s.FindPlacesByIDs(ctx, []string{"p2", "p1"})
		require.NoError(mt, err)
		require.Len(mt, places, 2)
		assert.Equal(mt, "second", places[0].Title)
		assert.Equal(mt, "first", places[1].Title)
	})

	mt.Run("find places with no ids skips the query", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")

		places, err := s.FindPlacesByIDs(ctx, nil)
		require.NoError(mt, err)
		assert.Empty(mt, places)
	})

	mt.Run("transaction aborts when fn fails", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)
		errLink := errors.New("link failed")

		err := s.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.InsertPlace(ctx, &models.Place{Title: "T", Creator: "u1"}); err != nil {
				return err
			}
			return errLink
		})
		assert.Equal(mt, errLink, err)
		assert.Equal(mt, []string{"insert", "abortTransaction"}, commandNames(mt))
	})

	mt.Run("transaction reports a failed abort", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		errLink := errors.New("link failed")

		err := s.WithTransaction(ctx, func(ctx context.Context) error {
			// Aborting here makes the store's own abort fail.
			require.NoError(mt, mongo.SessionFromContext(ctx).AbortTransaction(ctx))
			return errLink
		})
		assert.ErrorIs(mt, err, errLink)
		assert.Contains(mt, err.Error(), "abort transaction")
	})

	mt.Run("transaction commit failure is a persistence error", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    251,
				Name:    "NoSuchTransaction",
				Message: "transaction has been aborted",
			}),
		)

		err := s.WithTransaction(ctx, func(ctx context.Context) error {
			return s.InsertPlace(ctx, &models.Place{Title: "T", Creator: "u1"})
		})
		assert.ErrorIs(mt, err, apierrors.ErrPersistence)
		assert.Equal(mt, []string{"insert", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("transaction commits", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		err := s.WithTransaction(ctx, func(ctx context.Context) error {
			place := models.Place{Title: "T", Creator: "u1"}
			if err := s.InsertPlace(ctx, &place); err != nil {
				return err
			}
			return s.AddPlaceToUser(ctx, "u1", place.ID)
		})
		require.NoError(mt, err)
		assert.Equal(mt, []string{"insert", "update", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("remove place from missing user", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.RemovePlaceFromUser(ctx, "missing", "p1")
		assert.ErrorIs(mt, err, apierrors.ErrNotFound)
	})

	mt.Run("update place returns the new document", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "title", Value: "New title"},
			{Key: "description", Value: "New description"},
			{Key: "creator", Value: "u1"},
		}}))

		place, err := s.UpdatePlace(ctx, "p1", "New title", "New description")
		require.NoError(mt, err)
		assert.Equal(mt, "p1", place.ID)
		assert.Equal(mt, "New title", place.Title)
		assert.Equal(mt, "New description", place.Description)
	})

	mt.Run("update missing place", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.UpdatePlace(ctx, "missing", "t", "descr")
		assert.ErrorIs(mt, err, apierrors.ErrNotFound)
	})

	mt.Run("list users projects out the password", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "places_test")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "places_test.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u1"}, {Key: "email", Value: "a@x.com"}},
		))

		users, err := s.ListUsers(ctx)
		require.NoError(mt, err)
		require.Len(mt, users, 1)
		assert.Empty(mt, users[0].PasswordHash)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, int64(0), started.Command.Lookup("projection", "password").AsInt64())
	})
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, e := range mt.GetAllStartedEvents() {
		names = append(names, e.CommandName)
	}
	return names
}
