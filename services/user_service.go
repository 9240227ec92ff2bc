package services

import (
	"context"

	"places-api/logger"
	"places-api/models"
	"places-api/store"
	apierrors "places-api/utils/errors"
)

type UserService struct {
	store       store.Store
	credentials *CredentialService
	cleaner     *ImageCleaner
	log         *logger.Logger
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Image    string // optional reference returned by the blob store
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func NewUserService(s store.Store, credentials *CredentialService, cleaner *ImageCleaner, log *logger.Logger) *UserService {
	return &UserService{
		store:       s,
		credentials: credentials,
		cleaner:     cleaner,
		log:         log.With("service", "UserService"),
	}
}

// Signup creates an account and returns a token for it. The uploaded
// avatar, if any, is discarded when signup fails.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	res, err := s.signup(ctx, in)
	if err != nil {
		s.cleaner.Discard(ctx, in.Image)
		return AuthResult{}, err
	}
	s.log.Info("User signed up", "user_id", res.UserID)
	return res, nil
}

func (s *UserService) signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	_, exists, err := s.store.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		return AuthResult{}, apierrors.ErrConflict.WithMessage("User exists already, please login instead.")
	}

	passwordHash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.CreateUser(ctx, in.Name, in.Email, passwordHash, in.Image)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.credentials.IssueToken(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// Login checks the password and returns a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, found, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if !found || !s.credentials.Verify(password, user.PasswordHash) {
		return AuthResult{}, apierrors.ErrInvalidCredentials
	}

	token, err := s.credentials.IssueToken(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// CreateUser stores a new account. Fails with ErrConflict if the email is taken.
func (s *UserService) CreateUser(ctx context.Context, name, email, passwordHash, image string) (models.User, error) {
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Image:        image,
		Places:       []string{},
	}
	if err := s.store.InsertUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return s.store.FindUserByEmail(ctx, email)
}

func (s *UserService) FindByID(ctx context.Context, id string) (models.User, error) {
	return s.store.FindUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}
