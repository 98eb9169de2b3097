package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"tee-studio/internal/middleware"
	"tee-studio/internal/model"
	"tee-studio/internal/service"
	"tee-studio/pkg/apierror"
)

// multipartOverhead leaves room for boundaries and the text fields around
// the image part.
const multipartOverhead = 1 << 20

type ProductHandler struct {
	service       *service.ProductService
	maxUploadSize int64
}

func NewProductHandler(service *service.ProductService, maxUploadSize int64) *ProductHandler {
	return &ProductHandler{service: service, maxUploadSize: maxUploadSize}
}

// Upload accepts multipart/form-data with an "image" file part and an
// optional "name" field, in any order.
func (h *ProductHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.InvalidInput("Invalid multipart body"))
		return
	}

	var (
		name     string
		filename string
		image    []byte
		found    bool
	)

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			writeError(w, multipartError(nextErr))
			return
		}

		switch {
		case part.FormName() == "name":
			value, readErr := io.ReadAll(io.LimitReader(part, 1024))
			if readErr != nil {
				_ = part.Close()
				writeError(w, multipartError(readErr))
				return
			}
			name = strings.TrimSpace(string(value))
		case part.FormName() == "image" && !found:
			data, readErr := io.ReadAll(io.LimitReader(part, h.maxUploadSize+1))
			if readErr != nil {
				_ = part.Close()
				writeError(w, multipartError(readErr))
				return
			}
			filename = part.FileName()
			image = data
			found = len(data) > 0
		}
		_ = part.Close()
	}

	if !found {
		writeError(w, apierror.InvalidInput("No file uploaded"))
		return
	}

	product, err := h.service.Upload(r.Context(), service.UploadInput{
		UserID:   claims.UserID,
		Name:     name,
		Filename: filename,
		Body:     bytes.NewReader(image),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UploadResponse{
		Message: "File uploaded successfully",
		FileURL: product.ImageURL,
		Product: product,
	})
}

func (h *ProductHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListWithOwners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

func multipartError(err error) error {
	if isPayloadTooLarge(err) {
		return apierror.New(apierror.CodePayloadTooLarge, "Request body exceeds the upload size limit", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge)
	}
	return apierror.InvalidInput("Invalid multipart stream")
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
