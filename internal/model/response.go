package model

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type AuthResponse struct {
	Message     string      `json:"message"`
	User        *PublicUser `json:"user,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
}

type SessionResponse struct {
	User PublicUser `json:"user"`
}

type UploadResponse struct {
	Message string  `json:"message"`
	FileURL string  `json:"fileUrl"`
	Product Product `json:"product"`
}
