package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tee-studio/internal/model"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, user_id, name, image_url, object_key, content_type, size_bytes, width, height, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.Name, p.ImageURL, p.ObjectKey, p.ContentType, p.Size, p.Width, p.Height, p.CreatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) ListWithOwners(ctx context.Context) ([]model.ProductListing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.image_url, p.content_type, p.width, p.height, p.created_at,
		        u.id, u.username, u.full_name, u.email
		 FROM products p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	listings := make([]model.ProductListing, 0)
	for rows.Next() {
		var l model.ProductListing
		if err := rows.Scan(&l.ID, &l.Name, &l.ImageURL, &l.ContentType, &l.Width, &l.Height, &l.CreatedAt,
			&l.Owner.ID, &l.Owner.Username, &l.Owner.FullName, &l.Owner.Email); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
