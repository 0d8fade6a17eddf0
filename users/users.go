// Package users stores dashboard accounts and handles sign-in.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnspace/models"
	"learnspace/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrExists             = errors.New("user already exists")
	ErrInvalid            = errors.New("invalid user")
)

type Service struct {
	store    store.Store
	logger   *zap.Logger
	validate *validator.Validate
	cost     int
}

func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// NewUser is an account to create. Password is hashed before storage.
type NewUser struct {
	ID       string      `json:"id" validate:"required"`
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"omitempty,email"`
	Role     models.Role `json:"role" validate:"required,oneof=Student Faculty Organizer Admin"`
	Password string      `json:"password" validate:"required,min=6"`
}

func (s *Service) load(ctx context.Context) ([]models.User, error) {
	return store.Load[models.User](ctx, s.store, models.Users)
}

// Authenticate checks id and password. Unknown ids and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, id, password string) (models.User, error) {
	if id == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range all {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns every account without its password hash.
func (s *Service) List(ctx context.Context) ([]models.UserProfileResponse, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make([]models.UserProfileResponse, 0, len(all))
	for _, u := range all {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in NewUser) (models.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	all, err := s.load(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range all {
		if u.ID == in.ID {
			return models.User{}, fmt.Errorf("%w: %s", ErrExists, in.ID)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		ID:           in.ID,
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Save(ctx, s.store, models.Users, append(all, u)); err != nil {
		return models.User{}, fmt.Errorf("save users: %w", err)
	}
	s.logger.Info("user created", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	all, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	next := make([]models.User, 0, len(all))
	for _, u := range all {
		if u.ID != id {
			next = append(next, u)
		}
	}
	if len(next) == len(all) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := store.Save(ctx, s.store, models.Users, next); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
