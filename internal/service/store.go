package service

import (
	"context"

	"tee-studio/internal/model"
)

// UserStore is the credential store. Implementations must apply each write
// atomically per user; no ordering across writers is expected.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email string, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	SetRefreshToken(ctx context.Context, userID string, token string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	SetRole(ctx context.Context, userID string, role string) error
}

type ProductStore interface {
	Create(ctx context.Context, p model.Product) error
	ListWithOwners(ctx context.Context) ([]model.ProductListing, error)
}

type DesignStore interface {
	Create(ctx context.Context, d model.Design) error
	List(ctx context.Context) ([]model.Design, error)
}
