package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
)

type fakeUserStore struct {
	byEmail   map[string]*models.User
	createErr error
	created   []*models.User

	// racedUser simulates a concurrent sign-in that wins the insert race:
	// the first lookup misses, CreateUser fails, and the retry lookup finds
	// the winner's row.
	racedUser *models.User
	lookups   int
}

func (f *fakeUserStore) GetUserByEmail(email string) (*models.User, error) {
	f.lookups++
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	if f.racedUser != nil && f.racedUser.Email == email && f.lookups > 1 {
		return f.racedUser, nil
	}
	return nil, nil
}

func (f *fakeUserStore) CreateUser(userID uuid.UUID, name, email string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	user := &models.User{ID: userID, Name: name, Email: email}
	f.created = append(f.created, user)
	return user, nil
}

func TestUserSync_MissingEmail(t *testing.T) {
	sync := services.NewUserSync(&fakeUserStore{}, logger.NewNop())

	_, err := sync.EnsureUser(uuid.New().String(), "Test User", "")

	assert.ErrorIs(t, err, services.ErrMissingEmail)
}

func TestUserSync_ExistingUserWins(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Name: "Existing", Email: "user@example.com"}
	store := &fakeUserStore{byEmail: map[string]*models.User{"user@example.com": existing}}
	sync := services.NewUserSync(store, logger.NewNop())

	// A different identity uid with the same email resolves to the same row.
	user, err := sync.EnsureUser(uuid.New().String(), "Someone Else", "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, existing, user)
	assert.Empty(t, store.created)
}

func TestUserSync_CreatesNewUser(t *testing.T) {
	store := &fakeUserStore{}
	sync := services.NewUserSync(store, logger.NewNop())

	identityUID := uuid.New()
	user, err := sync.EnsureUser(identityUID.String(), "Test User", "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, identityUID, user.ID)
	assert.Equal(t, "Test User", user.Name)
	require.Len(t, store.created, 1)
}

func TestUserSync_DefaultsNameFromEmail(t *testing.T) {
	store := &fakeUserStore{}
	sync := services.NewUserSync(store, logger.NewNop())

	user, err := sync.EnsureUser(uuid.New().String(), "", "jane.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, "jane.doe", user.Name)
}

func TestUserSync_InvalidIdentityUID(t *testing.T) {
	sync := services.NewUserSync(&fakeUserStore{}, logger.NewNop())

	_, err := sync.EnsureUser("not-a-uuid", "Test User", "user@example.com")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid identity uid")
}

func TestUserSync_RecoversFromInsertRace(t *testing.T) {
	winner := &models.User{ID: uuid.New(), Name: "Winner", Email: "user@example.com"}
	store := &fakeUserStore{createErr: assert.AnError, racedUser: winner}
	sync := services.NewUserSync(store, logger.NewNop())

	user, err := sync.EnsureUser(uuid.New().String(), "Loser", "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, winner, user)
}
