package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tee-studio/internal/metrics"
	"tee-studio/internal/model"
	"tee-studio/pkg/apierror"
)

type AuthService struct {
	users    UserStore
	tokens   *TokenService
	hasher   *PasswordHasher
	validate *validator.Validate
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenService, hasher *PasswordHasher, m *metrics.Metrics) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		validate: validator.New(),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.PublicUser, error) {
	trimmed := req.Trimmed()
	if err := s.validate.Struct(trimmed); err != nil {
		s.metrics.AuthEvent("register", "invalid_input")
		return model.PublicUser{}, apierror.InvalidInput("All fields are required")
	}
	if len(req.Password) > MaxPasswordBytes {
		s.metrics.AuthEvent("register", "invalid_input")
		return model.PublicUser{}, apierror.InvalidInput(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, trimmed.Email, trimmed.Username)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		s.metrics.AuthEvent("register", "conflict")
		return model.PublicUser{}, apierror.Conflict("User already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     trimmed.Username,
		Email:        trimmed.Email,
		FullName:     trimmed.FullName,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			s.metrics.AuthEvent("register", "conflict")
			return model.PublicUser{}, apierror.Conflict("User already exists")
		}
		return model.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	s.metrics.AuthEvent("register", "success")
	slog.Info("user registered", "user_id", user.ID, "username", user.Username)

	return user.Public(), nil
}

// Login resolves the identity by email when present, otherwise by username,
// and issues a fresh token pair on a password match.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.PublicUser, model.TokenPair, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if (email == "" && username == "") || req.Password == "" {
		s.metrics.AuthEvent("login", "invalid_input")
		return model.PublicUser{}, model.TokenPair{}, apierror.InvalidInput("Email or username and password are required")
	}

	var (
		user     model.User
		err      error
		notFound string
	)
	if email != "" {
		user, err = s.users.FindByEmail(ctx, email)
		notFound = "Email not found"
	} else {
		user, err = s.users.FindByUsername(ctx, username)
		notFound = "Username not found"
	}
	if errors.Is(err, model.ErrUserNotFound) {
		s.metrics.AuthEvent("login", "not_found")
		return model.PublicUser{}, model.TokenPair{}, apierror.NotFound(notFound)
	}
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, fmt.Errorf("find user for login: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if !ok {
		s.metrics.AuthEvent("login", "invalid_credentials")
		slog.Warn("login failed", "user_id", user.ID, "reason", "invalid_credentials")
		return model.PublicUser{}, model.TokenPair{}, apierror.Unauthorized("Invalid credentials")
	}

	pair, err := s.tokens.issueFor(ctx, user)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	s.metrics.AuthEvent("login", "success")
	slog.Info("user logged in", "user_id", user.ID)

	return user.Public(), pair, nil
}

// Logout drops the stored refresh token. Repeating it, or logging out a
// user that no longer exists, is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.metrics.AuthEvent("logout", "success")
	slog.Info("user logged out", "user_id", userID)
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.PublicUser, model.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		s.metrics.AuthEvent("refresh", "missing_token")
		return model.PublicUser{}, model.TokenPair{}, apierror.Unauthorized("Refresh token is required")
	}

	pair, user, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		if apierror.HasCode(err, apierror.CodeUnauthorized) {
			s.metrics.AuthEvent("refresh", "rejected")
		}
		return model.PublicUser{}, model.TokenPair{}, err
	}

	s.metrics.AuthEvent("refresh", "success")
	slog.Info("refresh token rotated", "user_id", user.ID)

	return user.Public(), pair, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("User not found")
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("find user: %w", err)
	}

	return user.Public(), nil
}

// Session resolves verified access token claims to the current identity. A
// token whose user has since disappeared is treated as unauthenticated.
func (s *AuthService) Session(ctx context.Context, claims *model.AuthClaims) (model.PublicUser, error) {
	if claims == nil {
		return model.PublicUser{}, apierror.Unauthorized("authentication required")
	}

	user, err := s.GetUser(ctx, claims.UserID)
	if apierror.HasCode(err, apierror.CodeNotFound) {
		return model.PublicUser{}, apierror.Unauthorized("session is no longer valid")
	}
	return user, err
}

// EnsureAdmin makes sure an account with the given credentials exists and
// carries the admin role. An existing account keeps its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, username string, email string, password string) (model.PublicUser, error) {
	existing, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		existing, err = s.users.FindByEmail(ctx, email)
	}

	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if err := s.users.SetRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return model.PublicUser{}, fmt.Errorf("promote admin: %w", err)
			}
			existing.Role = model.RoleAdmin
			slog.Info("existing user promoted to admin", "user_id", existing.ID)
		}
		return existing.Public(), nil
	case !errors.Is(err, model.ErrUserNotFound):
		return model.PublicUser{}, fmt.Errorf("find admin: %w", err)
	}

	created, err := s.Register(ctx, model.RegisterRequest{
		FullName: "Administrator",
		Email:    email,
		Password: password,
		Username: username,
	})
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("register admin: %w", err)
	}

	if err := s.users.SetRole(ctx, created.ID, model.RoleAdmin); err != nil {
		return model.PublicUser{}, fmt.Errorf("promote admin: %w", err)
	}
	created.Role = model.RoleAdmin
	slog.Info("admin account created", "user_id", created.ID)

	return created, nil
}
