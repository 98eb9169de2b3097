package model

import "strings"

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// Trimmed returns a copy with every field trimmed, for blank checks and
// identity lookups. The password is hashed untrimmed.
func (r RegisterRequest) Trimmed() RegisterRequest {
	return RegisterRequest{
		FullName: strings.TrimSpace(r.FullName),
		Email:    strings.TrimSpace(r.Email),
		Password: strings.TrimSpace(r.Password),
		Username: strings.TrimSpace(r.Username),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateDesignRequest struct {
	ImageURL string     `json:"imageUrl" validate:"required,url"`
	Position Point      `json:"position"`
	Size     Dimensions `json:"size"`
}
