package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
)

var ErrMissingEmail = errors.New("authenticated identity has no email")

type UserStore interface {
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(userID uuid.UUID, name, email string) (*models.User, error)
}

// UserSync guarantees that an authenticated identity has a matching database
// row. The identity provider's subject id becomes the row's primary key.
type UserSync struct {
	store UserStore
	log   *logger.Logger
}

func NewUserSync(store UserStore, log *logger.Logger) *UserSync {
	return &UserSync{store: store, log: log}
}

// EnsureUser is an idempotent upsert-by-email: an existing row wins, a
// missing one is created from the identity claims.
func (s *UserSync) EnsureUser(identityUID, name, email string) (*models.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	userID, err := uuid.Parse(identityUID)
	if err != nil {
		return nil, fmt.Errorf("invalid identity uid: %w", err)
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	s.log.Infow("creating user for new identity", "email", email)
	created, err := s.store.CreateUser(userID, name, email)
	if err != nil {
		// Two sessions can race the first sign-in; the unique email constraint
		// rejects the loser, whose row was just created by the winner.
		if existing, lookupErr := s.store.GetUserByEmail(email); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	return created, nil
}
