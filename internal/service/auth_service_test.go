package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tee-studio/internal/model"
	"tee-studio/internal/repository"
	"tee-studio/pkg/apierror"
)

type authFixture struct {
	svc    *AuthService
	tokens *TokenService
	users  *repository.MemoryUserRepository
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	users := repository.NewMemoryStore().Users()
	tokens := NewTokenService(users, "test-secret", 15*time.Minute, time.Hour)
	svc := NewAuthService(users, tokens, NewPasswordHasher(bcrypt.MinCost), nil)

	return authFixture{svc: svc, tokens: tokens, users: users}
}

func anaRequest() model.RegisterRequest {
	return model.RegisterRequest{FullName: "Ana X", Email: "a@x.com", Password: "secret1", Username: "ana"}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("blank or missing field is invalid input and creates nothing", func(t *testing.T) {
		cases := map[string]func(r *model.RegisterRequest){
			"missing fullName":    func(r *model.RegisterRequest) { r.FullName = "" },
			"blank email":         func(r *model.RegisterRequest) { r.Email = "   " },
			"missing password":    func(r *model.RegisterRequest) { r.Password = "" },
			"whitespace username": func(r *model.RegisterRequest) { r.Username = "\t" },
		}

		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				f := newAuthFixture(t)
				req := anaRequest()
				mutate(&req)

				_, err := f.svc.Register(ctx, req)
				require.Error(t, err)
				assert.True(t, apierror.HasCode(err, apierror.CodeInvalidInput))
				assert.Contains(t, err.Error(), "All fields are required")

				exists, err := f.users.ExistsByEmailOrUsername(ctx, "a@x.com", "ana")
				require.NoError(t, err)
				assert.False(t, exists)
			})
		}
	})

	t.Run("password longer than bcrypt accepts is invalid input", func(t *testing.T) {
		f := newAuthFixture(t)
		req := anaRequest()
		req.Password = strings.Repeat("p", 80)

		_, err := f.svc.Register(ctx, req)
		require.Error(t, err)
		assert.True(t, apierror.HasCode(err, apierror.CodeInvalidInput))
		assert.Contains(t, err.Error(), "at most 72 bytes")

		exists, err := f.users.ExistsByEmailOrUsername(ctx, "a@x.com", "ana")
		require.NoError(t, err)
		assert.False(t, exists)

		req.Password = strings.Repeat("p", MaxPasswordBytes)
		_, err = f.svc.Register(ctx, req)
		require.NoError(t, err)
	})

	t.Run("duplicate email or username is a conflict", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Register(ctx, anaRequest())
		require.NoError(t, err)

		sameEmail := anaRequest()
		sameEmail.Username = "other"
		_, err = f.svc.Register(ctx, sameEmail)
		assert.True(t, apierror.HasCode(err, apierror.CodeConflict))

		sameName := anaRequest()
		sameName.Email = "other@x.com"
		_, err = f.svc.Register(ctx, sameName)
		assert.True(t, apierror.HasCode(err, apierror.CodeConflict))

		_, err = f.users.FindByEmail(ctx, "other@x.com")
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("stores a hash and returns a sanitized identity", func(t *testing.T) {
		f := newAuthFixture(t)
		req := anaRequest()
		req.Username = "  ana  "

		user, err := f.svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "ana", user.Username)
		assert.Equal(t, model.RoleUser, user.Role)
		assert.Equal(t, []string{}, user.Products)

		stored, err := f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

		body, err := json.Marshal(user)
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(body, &fields))
		assert.NotContains(t, fields, "password")
		assert.NotContains(t, fields, "passwordHash")
		assert.NotContains(t, fields, "refreshToken")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (authFixture, model.PublicUser) {
		f := newAuthFixture(t)
		user, err := f.svc.Register(ctx, anaRequest())
		require.NoError(t, err)
		return f, user
	}

	t.Run("correct credentials issue and persist a pair", func(t *testing.T) {
		f, registered := setup(t)

		user, pair, err := f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		stored, err := f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, pair.RefreshToken, stored.RefreshToken)

		_, second, err := f.svc.Login(ctx, model.LoginRequest{Email: "A@X.COM", Password: "secret1"})
		require.NoError(t, err)

		stored, err = f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, second.RefreshToken, stored.RefreshToken)
		assert.NotEqual(t, pair.RefreshToken, stored.RefreshToken)
	})

	t.Run("wrong password is unauthorized and keeps stored token", func(t *testing.T) {
		f, _ := setup(t)

		_, pair, err := f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "secret1"})
		require.NoError(t, err)

		_, _, err = f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))

		stored, err := f.users.FindByUsername(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, pair.RefreshToken, stored.RefreshToken)
	})

	t.Run("email takes precedence over username", func(t *testing.T) {
		f, _ := setup(t)

		_, _, err := f.svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Username: "ana", Password: "secret1"})
		require.Error(t, err)
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
		assert.Contains(t, err.Error(), "Email not found")
	})

	t.Run("unknown username is not found", func(t *testing.T) {
		f, _ := setup(t)

		_, _, err := f.svc.Login(ctx, model.LoginRequest{Username: "bob", Password: "secret1"})
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
		assert.Contains(t, err.Error(), "Username not found")
	})

	t.Run("missing identifier or password is invalid input", func(t *testing.T) {
		f, _ := setup(t)

		for _, req := range []model.LoginRequest{
			{Password: "secret1"},
			{Username: "ana"},
			{Email: "  ", Username: " ", Password: "secret1"},
		} {
			_, _, err := f.svc.Login(ctx, req)
			assert.True(t, apierror.HasCode(err, apierror.CodeInvalidInput), "%+v", req)
		}
	})
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	user, err := f.svc.Register(ctx, anaRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, user.ID))

	_, _, err = f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, user.ID))
	require.NoError(t, f.svc.Logout(ctx, user.ID))
	require.NoError(t, f.svc.Logout(ctx, "gone"))

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.svc.Register(ctx, anaRequest())
	require.NoError(t, err)
	user, pair, err := f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)

	t.Run("rotates the stored token", func(t *testing.T) {
		refreshed, next, err := f.svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, refreshed.ID)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))

		pair = next
	})

	t.Run("access token cannot be used to refresh", func(t *testing.T) {
		_, _, err := f.svc.Refresh(ctx, pair.AccessToken)
		assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))
	})

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		require.NoError(t, f.svc.Logout(ctx, user.ID))
		_, _, err := f.svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))
	})

	t.Run("empty token is unauthorized", func(t *testing.T) {
		_, _, err := f.svc.Refresh(ctx, " ")
		assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))
	})
}

func TestAuthService_GetUserAndSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	user, err := f.svc.Register(ctx, anaRequest())
	require.NoError(t, err)

	found, err := f.svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", found.Email)

	_, err = f.svc.GetUser(ctx, "missing")
	assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))

	session, err := f.svc.Session(ctx, &model.AuthClaims{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.ID)

	_, err = f.svc.Session(ctx, &model.AuthClaims{UserID: "missing"})
	assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))

	_, err = f.svc.Session(ctx, nil)
	assert.True(t, apierror.HasCode(err, apierror.CodeUnauthorized))
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the admin account", func(t *testing.T) {
		f := newAuthFixture(t)

		admin, err := f.svc.EnsureAdmin(ctx, "root", "root@x.com", "changeme")
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, admin.Role)

		_, pair, err := f.svc.Login(ctx, model.LoginRequest{Username: "root", Password: "changeme"})
		require.NoError(t, err)

		claims, err := f.tokens.Validate(pair.AccessToken, TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, claims.Role)
	})

	t.Run("promotes an existing user and is repeatable", func(t *testing.T) {
		f := newAuthFixture(t)
		user, err := f.svc.Register(ctx, anaRequest())
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			admin, err := f.svc.EnsureAdmin(ctx, "ana", "a@x.com", "ignored")
			require.NoError(t, err)
			assert.Equal(t, user.ID, admin.ID)
			assert.Equal(t, model.RoleAdmin, admin.Role)
		}

		_, _, err = f.svc.Login(ctx, model.LoginRequest{Username: "ana", Password: "secret1"})
		assert.NoError(t, err)
	})
}
