package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"tee-studio/internal/metrics"
	"tee-studio/internal/model"
	"tee-studio/internal/storage"
	"tee-studio/internal/util"
	"tee-studio/pkg/apierror"
)

type UploadInput struct {
	UserID   string
	Name     string
	Filename string
	Body     io.Reader
}

type ProductService struct {
	products     ProductStore
	objects      storage.ObjectStore
	maxSize      int64
	allowedTypes []string
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewProductService(products ProductStore, objects storage.ObjectStore, maxSize int64, allowedTypes []string, m *metrics.Metrics) *ProductService {
	return &ProductService{
		products:     products,
		objects:      objects,
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a composited product image and records it for the caller.
// The stored object is removed again if the product row cannot be written.
func (s *ProductService) Upload(ctx context.Context, in UploadInput) (model.Product, error) {
	if in.Body == nil {
		return model.Product{}, apierror.InvalidInput("No file uploaded")
	}

	mimeType, replay, err := util.SniffMIME(in.Body)
	if err != nil {
		return model.Product{}, fmt.Errorf("read upload: %w", err)
	}
	if !util.IsImageMIME(mimeType) || !util.IsAllowedMIME(mimeType, s.allowedTypes) {
		s.metrics.Upload("rejected", 0)
		return model.Product{}, apierror.New(apierror.CodeUnsupportedType, "Only image uploads are allowed", mimeType, http.StatusUnsupportedMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(replay, s.maxSize+1))
	if err != nil {
		return model.Product{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		s.metrics.Upload("rejected", 0)
		return model.Product{}, apierror.New(apierror.CodePayloadTooLarge, "File exceeds the upload size limit", fmt.Sprintf("max %d bytes", s.maxSize), http.StatusRequestEntityTooLarge)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.metrics.Upload("rejected", 0)
		return model.Product{}, apierror.New(apierror.CodeUnsupportedType, "Image could not be decoded", mimeType, http.StatusUnsupportedMediaType)
	}

	name, filename := productNames(in.Name, in.Filename, mimeType)

	now := s.now()
	key := util.ProductObjectKey(in.UserID, filename, now)

	url, err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		s.metrics.Upload("failed", 0)
		return model.Product{}, fmt.Errorf("store product image: %w", err)
	}

	product := model.Product{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Name:        name,
		ImageURL:    url,
		ObjectKey:   key,
		ContentType: mimeType,
		Size:        int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
		CreatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Error("orphaned product object", "key", key, "error", delErr)
		}
		s.metrics.Upload("failed", 0)
		if errors.Is(err, model.ErrUserNotFound) {
			return model.Product{}, apierror.NotFound("User not found")
		}
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.metrics.Upload("success", product.Size)
	slog.Info("product uploaded", "product_id", product.ID, "user_id", in.UserID, "size", product.Size)

	return product, nil
}

// ListWithOwners returns every product joined with its uploader, newest
// first. An empty catalogue is reported as not found.
func (s *ProductService) ListWithOwners(ctx context.Context) ([]model.ProductListing, error) {
	listings, err := s.products.ListWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(listings) == 0 {
		return nil, apierror.NotFound("No products found")
	}
	return listings, nil
}

// productNames derives the display name and the key filename. The display
// name prefers the explicit name, then the uploaded file's base name.
func productNames(name string, filename string, mimeType string) (string, string) {
	display := strings.TrimSpace(name)
	if display == "" {
		base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
		display = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if display == "" || display == "." || display == "/" {
		display = "tshirt"
	}

	safe, err := util.SanitizeFilename(display)
	if err != nil {
		safe = "tshirt"
	}

	ext := util.ExtensionForMIME(mimeType)
	if !strings.EqualFold(filepath.Ext(safe), ext) {
		safe += ext
	}

	return display, safe
}
