package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
)

const orderColumns = `order_id, user_id, status, total_amount, contact_method, contact_info, notes, payment_intent_id, created_at, updated_at`

// ScyllaOrders stocke commandes et tables dans le keyspace commandes.
type ScyllaOrders struct {
	session *gocql.Session
}

func NewScyllaOrders(session *gocql.Session) *ScyllaOrders {
	return &ScyllaOrders{session: session}
}

func scanOrder(scan func(dest ...interface{}) error) (models.Order, error) {
	var o models.Order
	err := scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.ContactMethod, &o.ContactInfo,
		&o.Notes, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateWithItems écrit orders, order_items et orders_by_user dans un batch LOGGED :
// soit tout est appliqué, soit rien.
func (s *ScyllaOrders) CreateWithItems(ctx context.Context, o *models.Order) error {
	if len(o.Items) == 0 {
		return errors.New("commande sans articles")
	}

	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.Status, o.TotalAmount, o.ContactMethod, o.ContactInfo,
		o.Notes, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt)
	for _, it := range o.Items {
		b.Query(`INSERT INTO order_items (order_id, item_id, product_id, product_name, product_image, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, it.ID, it.ProductID, it.ProductName, it.ProductImage, it.Quantity, it.Price)
	}
	b.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
		o.UserID, o.CreatedAt, o.ID)

	if err := s.session.ExecuteBatch(b); err != nil {
		return fmt.Errorf("batch commande %s: %w", o.ID, err)
	}
	return nil
}

func (s *ScyllaOrders) loadItems(ctx context.Context, orderID gocql.UUID) ([]models.OrderItem, error) {
	iter := s.session.Query(`SELECT item_id, product_id, product_name, product_image, quantity, price
		FROM order_items WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var items []models.OrderItem
	var it models.OrderItem
	for iter.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.ProductImage, &it.Quantity, &it.Price) {
		it.OrderID = orderID
		items = append(items, it)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture articles commande %s: %w", orderID, err)
	}
	return items, nil
}

// ListOrders fait un scan complet de la table, comme l'écran admin l'attend.
func (s *ScyllaOrders) ListOrders(ctx context.Context) ([]models.Order, error) {
	iter := s.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()

	var orders []models.Order
	for {
		o, ok := scanIter(iter, scanOrder)
		if !ok {
			break
		}
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	for i := range orders {
		items, err := s.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	sortOrders(orders)
	return orders, nil
}

func (s *ScyllaOrders) ListOrdersByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	iter := s.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes utilisateur: %w", err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.GetOrder(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *ScyllaOrders) GetOrder(ctx context.Context, id gocql.UUID) (models.Order, error) {
	q := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx)
	o, err := scanOrder(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}

	o.Items, err = s.loadItems(ctx, id)
	return o, err
}

func (s *ScyllaOrders) UpdateOrderStatus(ctx context.Context, id gocql.UUID, status string) error {
	applied, err := s.session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF EXISTS`,
		status, time.Now().UTC(), id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaOrders) SetPaymentIntent(ctx context.Context, id gocql.UUID, intentID string) error {
	applied, err := s.session.Query(`UPDATE orders SET payment_intent_id = ? WHERE order_id = ? IF EXISTS`, intentID, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaOrders) DeleteOrder(ctx context.Context, id gocql.UUID) error {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`DELETE FROM orders WHERE order_id = ?`, id)
	b.Query(`DELETE FROM order_items WHERE order_id = ?`, id)
	b.Query(`DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_id = ?`, o.UserID, o.CreatedAt, id)
	return s.session.ExecuteBatch(b)
}

// =============================================
// TABLES DU RESTAURANT
// =============================================

func (s *ScyllaOrders) ListTables(ctx context.Context) ([]models.Table, error) {
	iter := s.session.Query(`SELECT table_id, table_number, number_of_seats, image, created_at FROM restaurant_tables`).
		WithContext(ctx).Iter()

	var tables []models.Table
	var t models.Table
	for iter.Scan(&t.ID, &t.TableNumber, &t.NumberOfSeats, &t.Image, &t.CreatedAt) {
		tables = append(tables, t)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture tables: %w", err)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNumber < tables[j].TableNumber })
	return tables, nil
}

func (s *ScyllaOrders) GetTable(ctx context.Context, id gocql.UUID) (models.Table, error) {
	var t models.Table
	err := s.session.Query(`SELECT table_id, table_number, number_of_seats, image, created_at FROM restaurant_tables WHERE table_id = ?`, id).
		WithContext(ctx).Scan(&t.ID, &t.TableNumber, &t.NumberOfSeats, &t.Image, &t.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Table{}, ErrNotFound
	}
	return t, err
}

// CreateTable réserve le numéro de table (LWT) avant d'écrire la table.
func (s *ScyllaOrders) CreateTable(ctx context.Context, t *models.Table) error {
	applied, err := s.session.Query(`INSERT INTO tables_by_number (table_number, table_id) VALUES (?, ?) IF NOT EXISTS`,
		t.TableNumber, t.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrConflict
	}

	return s.session.Query(`INSERT INTO restaurant_tables (table_id, table_number, number_of_seats, image, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.TableNumber, t.NumberOfSeats, t.Image, t.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaOrders) DeleteTable(ctx context.Context, id gocql.UUID) error {
	t, err := s.GetTable(ctx, id)
	if err != nil {
		return err
	}

	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`DELETE FROM restaurant_tables WHERE table_id = ?`, id)
	b.Query(`DELETE FROM tables_by_number WHERE table_number = ?`, t.TableNumber)
	b.Query(`DELETE FROM table_assignments WHERE table_id = ?`, id)
	return s.session.ExecuteBatch(b)
}

func (s *ScyllaOrders) AssignUser(ctx context.Context, a models.TableAssignment) error {
	if _, err := s.GetTable(ctx, a.TableID); err != nil {
		return err
	}
	return s.session.Query(`INSERT INTO table_assignments (table_id, user_id, assigned_at) VALUES (?, ?, ?)`,
		a.TableID, a.UserID, a.AssignedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaOrders) ListAssignments(ctx context.Context, tableID gocql.UUID) ([]models.TableAssignment, error) {
	iter := s.session.Query(`SELECT user_id, assigned_at FROM table_assignments WHERE table_id = ?`, tableID).
		WithContext(ctx).Iter()

	var out []models.TableAssignment
	a := models.TableAssignment{TableID: tableID}
	for iter.Scan(&a.UserID, &a.AssignedAt) {
		out = append(out, a)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture affectations: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}
