package services

import (
	"errors"
	"time"

	apierrors "places-api/utils/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the token claims issued at signup and login.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// CredentialService hashes passwords and issues and verifies bearer tokens.
type CredentialService struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewCredentialService(jwtSecret string, ttl time.Duration, bcryptCost int) *CredentialService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialService{
		secret: []byte(jwtSecret),
		ttl:    ttl,
		cost:   bcryptCost,
		now:    time.Now,
	}
}

// Hash returns the bcrypt hash of password.
func (s *CredentialService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apierrors.ErrCrypto.WithMessage("Could not create user, please try again.").WithCause(err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func (s *CredentialService) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 token for the user that expires after the
// configured TTL.
func (s *CredentialService) IssueToken(userID, email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", apierrors.ErrCrypto.WithMessage("Failed to generate token").WithCause(err)
	}
	return tokenString, nil
}

// VerifyToken validates signature, algorithm and expiry, and returns the
// embedded claims.
func (s *CredentialService) VerifyToken(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Claims{}, apierrors.ErrUnauthorized.WithCause(err)
	}
	if claims.UserID == "" {
		return Claims{}, apierrors.ErrUnauthorized
	}
	return claims, nil
}
