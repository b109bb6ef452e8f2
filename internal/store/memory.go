package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Memory est une implémentation en mémoire de tous les stores.
// Utilisée avec STORE_DRIVER=memory et dans les tests.
type Memory struct {
	mu          sync.RWMutex
	products    map[gocql.UUID]models.Product
	profiles    map[gocql.UUID]models.Profile
	accounts    map[gocql.UUID]models.Account
	emails      map[string]gocql.UUID
	cartItems   map[gocql.UUID]models.CartItem
	orders      map[gocql.UUID]models.Order
	tables      map[gocql.UUID]models.Table
	assignments map[gocql.UUID]map[gocql.UUID]models.TableAssignment
	audit       []models.AuditLog
}

func NewMemory() *Memory {
	return &Memory{
		products:    make(map[gocql.UUID]models.Product),
		profiles:    make(map[gocql.UUID]models.Profile),
		accounts:    make(map[gocql.UUID]models.Account),
		emails:      make(map[string]gocql.UUID),
		cartItems:   make(map[gocql.UUID]models.CartItem),
		orders:      make(map[gocql.UUID]models.Order),
		tables:      make(map[gocql.UUID]models.Table),
		assignments: make(map[gocql.UUID]map[gocql.UUID]models.TableAssignment),
	}
}

// Stores expose la mémoire sous toutes les interfaces.
func (m *Memory) Stores() Stores {
	return Stores{
		Products: m,
		Profiles: m,
		Accounts: m,
		Carts:    m,
		Orders:   m,
		Tables:   m,
		Audit:    m,
	}
}

// =============================================
// PRODUITS
// =============================================

func (m *Memory) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id gocql.UUID) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.ID]; exists {
		return ErrConflict
	}
	m.products[p.ID] = *p
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.ID]; !exists {
		return ErrNotFound
	}
	m.products[p.ID] = *p
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[id]; !exists {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// =============================================
// PROFILS & COMPTES
// =============================================

func (m *Memory) ListProfiles(_ context.Context) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (m *Memory) GetProfile(_ context.Context, id gocql.UUID) (models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[p.ID]; exists {
		return ErrConflict
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *Memory) UpdateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[p.ID]; !exists {
		return ErrNotFound
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *Memory) DeleteProfile(_ context.Context, id gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[id]; !exists {
		return ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

func (m *Memory) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(a.Email)
	if _, taken := m.emails[email]; taken {
		return ErrConflict
	}
	m.accounts[a.ID] = *a
	m.emails[email] = a.ID
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id gocql.UUID) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) GetAccountByEmail(_ context.Context, email string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return m.accounts[id], nil
}

func (m *Memory) UpdateAccountMetadata(_ context.Context, id gocql.UUID, metadata string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Metadata = metadata
	m.accounts[id] = a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, id gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.emails, strings.ToLower(a.Email))
	delete(m.accounts, id)
	return nil
}

// =============================================
// PANIER
// =============================================

func (m *Memory) ListCartItems(_ context.Context, userID gocql.UUID) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.CartItem
	for _, it := range m.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sortCartItems(out)
	return out, nil
}

func (m *Memory) ListAllCartItems(_ context.Context) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.CartItem, 0, len(m.cartItems))
	for _, it := range m.cartItems {
		out = append(out, it)
	}
	sortCartItems(out)
	return out, nil
}

func (m *Memory) GetCartItem(_ context.Context, itemID gocql.UUID) (models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.cartItems[itemID]
	if !ok {
		return models.CartItem{}, ErrNotFound
	}
	return it, nil
}

func (m *Memory) FindCartItem(_ context.Context, userID, productID gocql.UUID) (models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, it := range m.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return models.CartItem{}, ErrNotFound
}

func (m *Memory) SaveCartItem(_ context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cartItems[item.ID] = *item
	return nil
}

func (m *Memory) DeleteCartItem(_ context.Context, userID, itemID gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.cartItems[itemID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	delete(m.cartItems, itemID)
	return nil
}

func (m *Memory) ClearCart(_ context.Context, userID gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, it := range m.cartItems {
		if it.UserID == userID {
			delete(m.cartItems, id)
		}
	}
	return nil
}

// =============================================
// COMMANDES
// =============================================

func (m *Memory) CreateWithItems(_ context.Context, o *models.Order) error {
	if len(o.Items) == 0 {
		return errors.New("commande sans articles")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[o.ID]; exists {
		return ErrConflict
	}
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *Memory) ListOrders(_ context.Context) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	sortOrders(out)
	return out, nil
}

func (m *Memory) ListOrdersByUser(_ context.Context, userID gocql.UUID) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sortOrders(out)
	return out, nil
}

func (m *Memory) GetOrder(_ context.Context, id gocql.UUID) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id gocql.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return nil
}

func (m *Memory) SetPaymentIntent(_ context.Context, id gocql.UUID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentIntentID = intentID
	m.orders[id] = o
	return nil
}

func (m *Memory) DeleteOrder(_ context.Context, id gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

// =============================================
// TABLES
// =============================================

func (m *Memory) ListTables(_ context.Context) ([]models.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (m *Memory) GetTable(_ context.Context, id gocql.UUID) (models.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[id]
	if !ok {
		return models.Table{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) CreateTable(_ context.Context, t *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.tables {
		if existing.TableNumber == t.TableNumber {
			return ErrConflict
		}
	}
	m.tables[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTable(_ context.Context, id gocql.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[id]; !ok {
		return ErrNotFound
	}
	delete(m.tables, id)
	delete(m.assignments, id)
	return nil
}

func (m *Memory) AssignUser(_ context.Context, a models.TableAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[a.TableID]; !ok {
		return ErrNotFound
	}
	if m.assignments[a.TableID] == nil {
		m.assignments[a.TableID] = make(map[gocql.UUID]models.TableAssignment)
	}
	m.assignments[a.TableID][a.UserID] = a
	return nil
}

func (m *Memory) ListAssignments(_ context.Context, tableID gocql.UUID) ([]models.TableAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TableAssignment, 0, len(m.assignments[tableID]))
	for _, a := range m.assignments[tableID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}

// =============================================
// AUDIT
// =============================================

func (m *Memory) InsertAudit(_ context.Context, entry models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, day time.Time, limit int) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := day.UTC().Format(AuditDayLayout)
	out := make([]models.AuditLog, 0)
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].Timestamp.UTC().Format(AuditDayLayout) != key {
			continue
		}
		out = append(out, m.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// AuditEntries retourne une copie du journal d'audit.
func (m *Memory) AuditEntries() []models.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.AuditLog(nil), m.audit...)
}

// --- helpers ---

func newerFirst(a, b time.Time, idA, idB gocql.UUID) bool {
	if a.Equal(b) {
		return idA.String() > idB.String()
	}
	return a.After(b)
}

func sortCartItems(items []models.CartItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return newerFirst(orders[i].CreatedAt, orders[j].CreatedAt, orders[i].ID, orders[j].ID)
	})
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}
