package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tee-studio/internal/middleware"
	"tee-studio/internal/model"
	"tee-studio/internal/repository"
	"tee-studio/internal/service"
)

type authTestEnv struct {
	router http.Handler
	users  *repository.MemoryUserRepository
	tokens *service.TokenService
}

func newAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	users := repository.NewMemoryStore().Users()
	tokens := service.NewTokenService(users, "test-secret", 15*time.Minute, time.Hour)
	authService := service.NewAuthService(users, tokens, service.NewPasswordHasher(bcrypt.MinCost), nil)
	authHandler := NewAuthHandler(authService, true)
	userHandler := NewUserHandler(authService)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := chi.NewRouter()
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)
	r.With(authMiddleware.RequireAuth).Post("/auth/logout", authHandler.Logout)
	r.With(authMiddleware.RequireAuth).Get("/auth/session", authHandler.Session)
	r.Get("/users/{userId}", userHandler.Get)

	return authTestEnv{router: r, users: users, tokens: tokens}
}

func (e authTestEnv) do(t *testing.T, method string, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		var err error
		payload, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var anaRegistration = map[string]string{
	"username": "ana",
	"fullName": "Ana X",
	"email":    "a@x.com",
	"password": "secret1",
}

func TestAuthHandler_RegisterLoginScenario(t *testing.T) {
	env := newAuthTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", anaRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ana", user["username"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "refreshToken")
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ana", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotContains(t, body["user"], "password")
	assert.NotContains(t, body["user"], "refreshToken")

	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.NotEmpty(t, c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, "/", c.Path)
		assert.Zero(t, c.MaxAge)
	}
	assert.Equal(t, body["accessToken"], cookieByName(rec, middleware.AccessTokenCookie).Value)

	stored, err := env.users.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, cookieByName(rec, middleware.RefreshTokenCookie).Value, stored.RefreshToken)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ana", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
	assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))

	after, err := env.users.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, stored.RefreshToken, after.RefreshToken)
}

func TestAuthHandler_RegisterFailures(t *testing.T) {
	env := newAuthTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/auth/register", anaRegistration).Code)

	cases := []struct {
		name    string
		body    any
		message string
	}{
		{"missing field", map[string]string{"username": "bob", "email": "b@x.com", "password": "pw"}, "All fields are required"},
		{"empty body", nil, "All fields are required"},
		{"malformed json", "{", "Invalid JSON body"},
		{"duplicate email", map[string]string{"username": "bob", "fullName": "Bob", "email": "a@x.com", "password": "pw"}, "User already exists"},
		{"duplicate username", map[string]string{"username": "ana", "fullName": "Bob", "email": "b@x.com", "password": "pw"}, "User already exists"},
		{"password too long", map[string]string{"username": "bob", "fullName": "Bob", "email": "b@x.com", "password": strings.Repeat("p", 80)}, "Password must be at most 72 bytes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, decodeBody(t, rec)["message"])
		})
	}
}

func TestAuthHandler_LoginLookupFailures(t *testing.T) {
	env := newAuthTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/auth/register", anaRegistration).Code)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "no@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Email not found", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_LogoutIsIdempotent(t *testing.T) {
	env := newAuthTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/auth/register", anaRegistration).Code)

	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.Code)
	access := cookieByName(login, middleware.AccessTokenCookie)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/auth/logout", nil, access)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
		assert.Equal(t, "User logged out successfully", decodeBody(t, rec)["message"])

		for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
			c := cookieByName(rec, name)
			require.NotNil(t, c, name)
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
			assert.True(t, c.HttpOnly)
		}
	}

	stored, err := env.users.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	rec := env.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_RefreshAndSession(t *testing.T) {
	env := newAuthTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/auth/register", anaRegistration).Code)
	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ana", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.Code)

	refreshCookie := cookieByName(login, middleware.RefreshTokenCookie)

	rec := env.do(t, http.MethodPost, "/auth/refresh", nil, refreshCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["accessToken"])
	rotated := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refreshCookie.Value, rotated.Value)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refreshCookie.Value})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": rotated.Value})
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieByName(rec, middleware.AccessTokenCookie)

	rec = env.do(t, http.MethodGet, "/auth/session", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "ana", session["username"])

	rec = env.do(t, http.MethodGet, "/auth/session", nil, &http.Cookie{Name: middleware.AccessTokenCookie, Value: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_Get(t *testing.T) {
	env := newAuthTestEnv(t)
	rec := env.do(t, http.MethodPost, "/auth/register", anaRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["user"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "refreshToken")

	rec = env.do(t, http.MethodGet, "/users/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error","code":"INTERNAL_ERROR"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeError(rec, model.ErrUserAlreadyExists)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
