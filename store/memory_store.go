package store

import (
	"context"
	"sort"
	"sync"

	"places-api/models"
	apierrors "places-api/utils/errors"
)

type txKey struct{}

// MemoryStore keeps everything in process. A transaction holds the write
// lock for its whole duration and restores a snapshot on failure, so readers
// never see a half-applied transaction.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	emails map[string]string
	places map[string]models.Place
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
		places: make(map[string]models.Place),
	}
}

func (s *MemoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*MemoryStore)
	return owner == s
}

func (s *MemoryStore) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type memorySnapshot struct {
	users  map[string]models.User
	emails map[string]string
	places map[string]models.Place
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		users:  make(map[string]models.User, len(s.users)),
		emails: make(map[string]string, len(s.emails)),
		places: make(map[string]models.Place, len(s.places)),
	}
	for id, u := range s.users {
		u.Places = append([]string(nil), u.Places...)
		snap.users[id] = u
	}
	for email, id := range s.emails {
		snap.emails[email] = id
	}
	for id, p := range s.places {
		snap.places[id] = p
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.users = snap.users
	s.emails = snap.emails
	s.places = snap.places
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn TxFunc) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) error {
	defer s.lock(ctx)()

	if _, taken := s.emails[user.Email]; taken {
		return apierrors.ErrConflict.WithMessage("User exists already, please login instead.")
	}
	if user.ID == "" {
		user.ID = NewID()
	}
	if user.Places == nil {
		user.Places = []string{}
	}
	stored := *user
	stored.Places = append([]string{}, user.Places...)
	s.users[user.ID] = stored
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (models.User, error) {
	defer s.rlock(ctx)()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	u.Places = append([]string{}, u.Places...)
	return u, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	defer s.rlock(ctx)()

	id, ok := s.emails[email]
	if !ok {
		return models.User{}, false, nil
	}
	u := s.users[id]
	u.Places = append([]string{}, u.Places...)
	return u, true, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	defer s.rlock(ctx)()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		u.PasswordHash = ""
		u.Places = append([]string{}, u.Places...)
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) AddPlaceToUser(ctx context.Context, userID, placeID string) error {
	defer s.lock(ctx)()

	u, ok := s.users[userID]
	if !ok {
		return apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	if u.HasPlace(placeID) {
		return nil
	}
	u.Places = append(append([]string{}, u.Places...), placeID)
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) RemovePlaceFromUser(ctx context.Context, userID, placeID string) error {
	defer s.lock(ctx)()

	u, ok := s.users[userID]
	if !ok {
		return apierrors.ErrNotFound.WithMessage("Could not find user for the provided id.")
	}
	kept := make([]string, 0, len(u.Places))
	for _, id := range u.Places {
		if id != placeID {
			kept = append(kept, id)
		}
	}
	u.Places = kept
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) InsertPlace(ctx context.Context, place *models.Place) error {
	defer s.lock(ctx)()

	if place.ID == "" {
		place.ID = NewID()
	}
	s.places[place.ID] = *place
	return nil
}

func (s *MemoryStore) FindPlaceByID(ctx context.Context, id string) (models.Place, error) {
	defer s.rlock(ctx)()

	p, ok := s.places[id]
	if !ok {
		return models.Place{}, apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	return p, nil
}

func (s *MemoryStore) FindPlacesByIDs(ctx context.Context, ids []string) ([]models.Place, error) {
	defer s.rlock(ctx)()

	places := make([]models.Place, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.places[id]; ok {
			places = append(places, p)
		}
	}
	return places, nil
}

func (s *MemoryStore) UpdatePlace(ctx context.Context, id, title, description string) (models.Place, error) {
	defer s.lock(ctx)()

	p, ok := s.places[id]
	if !ok {
		return models.Place{}, apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	p.Title = title
	p.Description = description
	s.places[id] = p
	return p, nil
}

func (s *MemoryStore) DeletePlace(ctx context.Context, id string) error {
	defer s.lock(ctx)()

	if _, ok := s.places[id]; !ok {
		return apierrors.ErrNotFound.WithMessage("Could not find a place for the provided id.")
	}
	delete(s.places, id)
	return nil
}
