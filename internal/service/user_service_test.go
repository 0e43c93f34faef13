package service

import (
	"context"
	"testing"
	"time"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newUserService(t *testing.T) (*fixture, UserService) {
	t.Helper()
	f := newFixture(t)
	seedRoles(t, f)
	return f, NewUserService(f.users, f.roles, f.audit, f.tx, TokenConfig{Secret: testSecret, Expiration: time.Hour})
}

func TestUserService_CreateAndLogin(t *testing.T) {
	f, svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "", CreateUserRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "s3cret-pass",
		Role:     "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", user.Role)
	assert.EqualValues(t, 1, f.auditCount(t, "user", model.ActionCreate))

	stored, err := f.users.GetByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.Password)

	token, err := svc.Login(ctx, LoginUserRequest{Email: "maria@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, "manager", claims["role"])

	_, err = svc.Login(ctx, LoginUserRequest{Email: "maria@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginUserRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_CreateValidation(t *testing.T) {
	_, svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "", CreateUserRequest{Username: "joao", Email: "joao@example.com", Password: "password1", Role: "staff"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   CreateUserRequest
		field string
	}{
		{"unknown role", CreateUserRequest{Username: "a", Email: "a@example.com", Password: "password1", Role: "ghost"}, "role"},
		{"bad email", CreateUserRequest{Username: "a", Email: "not-an-email", Password: "password1", Role: "staff"}, "email"},
		{"short password", CreateUserRequest{Username: "a", Email: "a@example.com", Password: "short", Role: "staff"}, "password"},
		{"taken username", CreateUserRequest{Username: "joao", Email: "a@example.com", Password: "password1", Role: "staff"}, "username"},
		{"taken email", CreateUserRequest{Username: "a", Email: "joao@example.com", Password: "password1", Role: "staff"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, "", tt.req)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestUserService_UpdateAndDelete(t *testing.T) {
	f, svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "", CreateUserRequest{Username: "ana", Email: "ana@example.com", Password: "password1", Role: "staff"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, "", user.ID.String(), UpdateUserRequest{Role: "manager", Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)
	assert.Equal(t, "ana", updated.Username)

	_, err = svc.Login(ctx, LoginUserRequest{Email: "ana@example.com", Password: "new-password"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "", user.ID.String()))
	_, err = svc.GetUserByID(ctx, user.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	users, total, err := svc.ListUsers(ctx, "", pagination.Params{Page: 1, Limit: 20, Trashed: pagination.TrashedOnly})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.NotNil(t, users[0].DeletedAt)
	assert.EqualValues(t, 1, f.auditCount(t, "user", model.ActionDelete))
}

func TestUserService_EnsureAdmin(t *testing.T) {
	f, svc := newUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))
	admin, err := f.users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	// a populated table is left alone
	require.NoError(t, svc.EnsureAdmin(ctx, "other@example.com", "admin-pass"))
	_, err = f.users.GetByEmail(ctx, "other@example.com")
	assert.Error(t, err)
}
