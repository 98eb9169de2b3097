package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tee-studio/internal/model"
)

type DesignRepository struct {
	pool *pgxpool.Pool
}

func NewDesignRepository(pool *pgxpool.Pool) *DesignRepository {
	return &DesignRepository{pool: pool}
}

func (r *DesignRepository) Create(ctx context.Context, d model.Design) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO designs (id, image_url, position_x, position_y, width, height, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.ImageURL, d.Position.X, d.Position.Y, d.Size.Width, d.Size.Height, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create design: %w", err)
	}
	return nil
}

func (r *DesignRepository) List(ctx context.Context) ([]model.Design, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, image_url, position_x, position_y, width, height, created_at, updated_at
		 FROM designs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	designs := make([]model.Design, 0)
	for rows.Next() {
		var d model.Design
		if err := rows.Scan(&d.ID, &d.ImageURL, &d.Position.X, &d.Position.Y, &d.Size.Width, &d.Size.Height,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		designs = append(designs, d)
	}
	return designs, rows.Err()
}
