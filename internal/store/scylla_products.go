package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
)

const productColumns = `product_id, name, description, price, stock, image, created_at, updated_at`

// ScyllaProducts stocke le catalogue dans le keyspace produits.
type ScyllaProducts struct {
	session *gocql.Session
}

func NewScyllaProducts(session *gocql.Session) *ScyllaProducts {
	return &ScyllaProducts{session: session}
}

func scanProduct(scan func(dest ...interface{}) error) (models.Product, error) {
	var p models.Product
	err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *ScyllaProducts) ListProducts(ctx context.Context) ([]models.Product, error) {
	iter := s.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()

	var products []models.Product
	for {
		p, ok := scanIter(iter, scanProduct)
		if !ok {
			break
		}
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}

	sort.Slice(products, func(i, j int) bool {
		return newerFirst(products[i].CreatedAt, products[j].CreatedAt, products[i].ID, products[j].ID)
	})
	return products, nil
}

func (s *ScyllaProducts) GetProduct(ctx context.Context, id gocql.UUID) (models.Product, error) {
	q := s.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)
	p, err := scanProduct(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

func (s *ScyllaProducts) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Image, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaProducts) UpdateProduct(ctx context.Context, p *models.Product) error {
	applied, err := s.session.Query(`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, image = ?, updated_at = ?
		WHERE product_id = ? IF EXISTS`,
		p.Name, p.Description, p.Price, p.Stock, p.Image, p.UpdatedAt, p.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaProducts) DeleteProduct(ctx context.Context, id gocql.UUID) error {
	applied, err := s.session.Query(`DELETE FROM products WHERE product_id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// scanIter adapte un scanner de ligne à gocql.Iter.
func scanIter[T any](iter *gocql.Iter, scan func(func(dest ...interface{}) error) (T, error)) (T, bool) {
	ok := true
	v, _ := scan(func(dest ...interface{}) error {
		ok = iter.Scan(dest...)
		return nil
	})
	return v, ok
}
