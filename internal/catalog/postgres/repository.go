package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Aytaditya/salessense/internal/catalog"
)

// Repository reads the product catalog from Postgres. It satisfies
// catalog.Lister.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog db ping: %w", err)
	}
	return nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	const query = `
SELECT product_id, name, category, unit_price, in_stock
FROM product
ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		var product catalog.Product
		if err := rows.Scan(
			&product.ProductID,
			&product.Name,
			&product.Category,
			&product.UnitPrice,
			&product.InStock,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
