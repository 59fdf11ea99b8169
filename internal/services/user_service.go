package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles business logic for user accounts.
type UserService struct {
	repo      repositories.UserRepository
	hasher    PasswordHasher
	publisher EventPublisher
	log       *zap.Logger
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(repo repositories.UserRepository, hasher PasswordHasher, publisher EventPublisher, log *zap.Logger) *UserService {
	return &UserService{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		log:       log.With(zap.String("service", "user")),
	}
}

// CreateUserInput carries the fields needed to register a user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput carries a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *models.Role
}

type userEvent struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func notFoundUser(err error, key string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, key)
	}
	return err
}

// FindByEmail looks a user up by exact, case-sensitive email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFoundUser(err, email)
	}
	return user, nil
}

// FindByID looks a user up by ID.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundUser(err, id)
	}
	return user, nil
}

// Create registers a new user. The password is hashed before it is stored and
// the returned user carries the hash.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if _, err := s.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Role:     role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	s.publish(ctx, EventUserRegistered, user)
	return user, nil
}

// ListAll returns every user.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAll(ctx)
}

// Update merges the provided fields into the user. A new password is hashed.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		if other, err := s.FindByEmail(ctx, *in.Email); err == nil && other.ID != user.ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, *in.Email)
		} else if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *in.Email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *in.Role)
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		hashed, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
		}
		return nil, notFoundUser(err, id)
	}

	updated, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("User updated", zap.String("user_id", id))
	s.publish(ctx, EventUserUpdated, updated)
	return updated, nil
}

// Delete removes the user and returns the removed record.
func (s *UserService) Delete(ctx context.Context, id string) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, notFoundUser(err, id)
	}

	s.log.Info("User deleted", zap.String("user_id", id))
	s.publish(ctx, EventUserDeleted, user)
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := s.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.log.Warn("Seed admin email belongs to a non-admin user", zap.String("user_id", existing.ID))
		}
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return s.Create(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: got %d bytes", ErrPasswordTooLong, len(password))
	}
	return hashed, err
}

func (s *UserService) publish(ctx context.Context, event string, user *models.User) {
	if s.publisher == nil {
		return
	}
	payload := userEvent{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.log.Warn("Failed to publish event", zap.String("event", event), zap.String("user_id", user.ID), zap.Error(err))
	}
}
