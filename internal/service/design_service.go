package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tee-studio/internal/model"
	"tee-studio/pkg/apierror"
)

type DesignService struct {
	designs  DesignStore
	validate *validator.Validate
	now      func() time.Time
}

func NewDesignService(designs DesignStore) *DesignService {
	return &DesignService{
		designs:  designs,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DesignService) Create(ctx context.Context, req model.CreateDesignRequest) (model.Design, error) {
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if err := s.validate.Struct(req); err != nil {
		return model.Design{}, apierror.InvalidInput("A valid imageUrl and non-negative size are required")
	}

	now := s.now()
	design := model.Design{
		ID:        uuid.NewString(),
		ImageURL:  req.ImageURL,
		Position:  req.Position,
		Size:      req.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.designs.Create(ctx, design); err != nil {
		return model.Design{}, fmt.Errorf("create design: %w", err)
	}

	return design, nil
}

func (s *DesignService) List(ctx context.Context) ([]model.Design, error) {
	designs, err := s.designs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	if designs == nil {
		designs = []model.Design{}
	}
	return designs, nil
}
