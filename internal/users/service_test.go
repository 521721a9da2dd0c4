package users

import (
	"context"
	"testing"
	"time"

	"github.com/example/retailhub/internal/auth"
	"github.com/example/retailhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byEmail map[string]*user.User
	byID    map[string]*user.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byEmail: make(map[string]*user.User),
		byID:    make(map[string]*user.User),
	}
}

func (f *fakeRepo) Create(ctx context.Context, email, passwordHash, fullName, phone string) (*user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrEmailTaken
	}
	u := &user.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Phone:        phone,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func TestService_Register(t *testing.T) {
	svc := NewService(newFakeRepo())

	u, err := svc.Register(context.Background(), "alice@example.com", "password123", "Alice Doe", "555-0100")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, auth.CheckPassword("password123", u.PasswordHash))
}

func TestService_Register_ShortPassword(t *testing.T) {
	svc := NewService(newFakeRepo())

	u, err := svc.Register(context.Background(), "alice@example.com", "short", "Alice Doe", "")

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
	assert.Nil(t, u)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Register(context.Background(), "alice@example.com", "password123", "Alice Doe", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice@example.com", "otherpassword", "Alice Clone", "")

	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestService_Authenticate(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Register(context.Background(), "alice@example.com", "password123", "Alice Doe", "")
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "alice@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Register(context.Background(), "alice@example.com", "password123", "Alice Doe", "")
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "alice@example.com", "wrongpassword")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, u)
}

func TestService_Authenticate_UnknownEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	// Unknown account and wrong password answer identically.
	u, err := svc.Authenticate(context.Background(), "nobody@example.com", "password123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, u)
}
