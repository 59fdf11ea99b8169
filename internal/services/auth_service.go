package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// SessionCookie is the cookie that carries the access token in browsers.
const SessionCookie = "jwt"

// DefaultTokenDuration is how long an issued token stays valid.
const DefaultTokenDuration = 30 * 24 * time.Hour

// Claims is the payload of an access token: {email, sub, iat, exp}.
type Claims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// Session is the result of a successful login.
type Session struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// CookieClearer is the transport side of a session; fiber.Ctx satisfies it.
type CookieClearer interface {
	ClearCookie(key ...string)
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	users      *UserService
	hasher     PasswordHasher
	jwtSecret  []byte
	tokenDurat time.Duration
	dummyHash  string
	log        *zap.Logger
}

// NewAuthService creates a new AuthService. A non-positive tokenDuration
// falls back to DefaultTokenDuration.
func NewAuthService(users *UserService, hasher PasswordHasher, jwtSecret string, tokenDuration time.Duration, log *zap.Logger) (*AuthService, error) {
	if tokenDuration <= 0 {
		tokenDuration = DefaultTokenDuration
	}
	// Compared against on unknown emails so both failure paths cost one bcrypt run.
	dummy, err := hasher.Hash("storefront-unknown-user")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:      users,
		hasher:     hasher,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
		dummyHash:  dummy,
		log:        log.With(zap.String("service", "auth")),
	}, nil
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Role = models.RoleUser
	return s.users.Create(ctx, in)
}

// Authenticate returns the user without its password hash if password matches.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	redacted := user.Redacted()
	return &redacted, nil
}

// IssueSession signs an access token for user.
func (s *AuthService) IssueSession(user *models.User) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenDurat)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{
		User:        user.Redacted(),
		AccessToken: tokenString,
		ExpiresAt:   time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Login authenticates and issues a session in one step.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.log.Info("User logged in", zap.String("user_id", user.ID))
	return s.IssueSession(user)
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug("Token validation error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EndSession tells the client to drop its token. Tokens are not revoked
// server-side and stay valid until they expire.
func (s *AuthService) EndSession(sink CookieClearer) {
	sink.ClearCookie(SessionCookie)
}
