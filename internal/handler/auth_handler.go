package handler

import (
	"net/http"
	"strings"

	"tee-studio/internal/middleware"
	"tee-studio/internal/model"
	"tee-studio/internal/service"
	"tee-studio/pkg/apierror"
)

type AuthHandler struct {
	service      *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(service *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{service: service, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{
		Message: "User registered successfully",
		User:    &user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, pair, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, model.AuthResponse{
		Message:     "User logged in successfully",
		User:        &user,
		AccessToken: pair.AccessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	h.clearTokenCookies(w)
	writeMessage(w, http.StatusOK, "User logged out successfully")
}

// Refresh takes the refresh token from its cookie, or from the JSON body
// for clients that cannot send cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}

	if token == "" {
		var payload model.RefreshRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, err)
			return
		}
		token = strings.TrimSpace(payload.RefreshToken)
	}

	_, pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if apierror.HasCode(err, apierror.CodeUnauthorized) {
			h.clearTokenCookies(w)
		}
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, model.AuthResponse{
		Message:     "Access token refreshed",
		AccessToken: pair.AccessToken,
	})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	user, err := h.service.Session(r.Context(), claims)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{User: user})
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, pair.AccessToken))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, pair.RefreshToken))
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := h.cookie(name, "")
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

// cookie builds a session cookie. No MaxAge or SameSite is set so the
// browser keeps it for the session and applies its own defaults.
func (h *AuthHandler) cookie(name string, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
	}
}
