package store

import (
	"context"
	"errors"
	"fmt"

	"places-api/models"
	apierrors "places-api/utils/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	placesCollection = "places"
)

// MongoStore keeps users and places in two collections. Transactions need a
// replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	places *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client: client,
		users:  db.Collection(usersCollection),
		places: db.Collection(placesCollection),
	}
}

// EnsureIndexes creates the unique index on user email.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.users.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("create unique email index: %w", err)
	}
	return nil
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn TxFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return persistence(err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(); err != nil {
			return persistence(err)
		}
		if err := fn(sc); err != nil {
			if abortErr := session.AbortTransaction(context.WithoutCancel(sc)); abortErr != nil {
				return errors.Join(err, fmt.Errorf("abort transaction: %w", abortErr))
			}
			return err
		}
		if err := session.CommitTransaction(sc); err != nil {
			return persistence(err)
		}
		return nil
	})
}

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = NewID()
	}
	if user.Places == nil {
		user.Places = []string{}
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apierrors.ErrConflict.WithMessage("User exists already, please login instead.")
		}
		return persistence(err)
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	if err != nil {
		return models.User{}, persistence(err)
	}
	return user, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, persistence(err)
	}
	return user, true, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, persistence(err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, persistence(err)
	}
	return users, nil
}

func (s *MongoStore) AddPlaceToUser(ctx context.Context, userID, placeID string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"places": placeID}})
	if err != nil {
		return persistence(err)
	}
	if res.MatchedCount == 0 {
		return apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	return nil
}

func (s *MongoStore) RemovePlaceFromUser(ctx context.Context, userID, placeID string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"places": placeID}})
	if err != nil {
		return persistence(err)
	}
	if res.MatchedCount == 0 {
		return apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	return nil
}

func (s *MongoStore) InsertPlace(ctx context.Context, place *models.Place) error {
	if place.ID == "" {
		place.ID = NewID()
	}
	if _, err := s.places.InsertOne(ctx, place); err != nil {
		return persistence(err)
	}
	return nil
}

func (s *MongoStore) FindPlaceByID(ctx context.Context, id string) (models.Place, error) {
	var place models.Place
	err := s.places.FindOne(ctx, bson.M{"_id": id}).Decode(&place)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Place{}, apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	if err != nil {
		return models.Place{}, persistence(err)
	}
	return place, nil
}

func (s *MongoStore) FindPlacesByIDs(ctx context.Context, ids []string) ([]models.Place, error) {
	if len(ids) == 0 {
		return []models.Place{}, nil
	}
	cursor, err := s.places.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, persistence(err)
	}
	defer cursor.Close(ctx)

	var found []models.Place
	if err := cursor.All(ctx, &found); err != nil {
		return nil, persistence(err)
	}
	byID := make(map[string]models.Place, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	places := make([]models.Place, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			places = append(places, p)
		}
	}
	return places, nil
}

func (s *MongoStore) UpdatePlace(ctx context.Context, id, title, description string) (models.Place, error) {
	var place models.Place
	err := s.places.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "description": description}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&place)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Place{}, apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	if err != nil {
		return models.Place{}, persistence(err)
	}
	return place, nil
}

func (s *MongoStore) DeletePlace(ctx context.Context, id string) error {
	res, err := s.places.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistence(err)
	}
	if res.DeletedCount == 0 {
		return apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	return nil
}

func persistence(err error) error {
	return apierrors.ErrPersistence.WithCause(err)
}
