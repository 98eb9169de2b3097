package middleware

import (
	"encoding/json"
	"net/http"

	"tee-studio/internal/model"
)

func writeJSONError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Message: message,
		Code:    code,
	})
}
