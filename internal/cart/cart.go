// Package cart agrège le panier d'un utilisateur (lignes, total, quantité).
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	EventUpdated = "updated"
	EventCleared = "cleared"
)

// MaxLineQuantity borne la quantité d'une ligne (total et compteur restent loin de l'overflow).
const MaxLineQuantity = 1000

var (
	ErrInvalidQuantity = errors.New("quantité invalide")
	ErrProductNotFound = errors.New("produit introuvable")
	ErrItemNotFound    = errors.New("article introuvable dans le panier")
)

type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Cart est le panier joint aux produits.
type Cart struct {
	Items []models.CartLine
}

// Total = Σ prix × quantité, arrondi au centime.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// Count = Σ quantités.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Summary est la forme JSON renvoyée aux clients (HTTP et websocket).
type Summary struct {
	Items []models.CartLine `json:"items"`
	Total float64           `json:"total"`
	Count int               `json:"count"`
}

func (c Cart) Summary() Summary {
	items := c.Items
	if items == nil {
		items = []models.CartLine{}
	}
	total, _ := c.Total().Float64()
	return Summary{Items: items, Total: total, Count: c.Count()}
}

type Service struct {
	carts    store.CartStore
	products store.ProductStore
	pub      Publisher
	log      logrus.FieldLogger
}

func NewService(carts store.CartStore, products store.ProductStore, pub Publisher, log logrus.FieldLogger) *Service {
	return &Service{carts: carts, products: products, pub: pub, log: log}
}

// Channel est le canal Redis de notification du panier d'un utilisateur.
func Channel(userID gocql.UUID) string {
	return "cart:" + userID.String()
}

// Load lit le panier ; les lignes dont le produit a disparu sont ignorées.
func (s *Service) Load(ctx context.Context, userID gocql.UUID) (Cart, error) {
	items, err := s.carts.ListCartItems(ctx, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("lecture panier: %w", err)
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return Cart{}, fmt.Errorf("lecture produit %s: %w", it.ProductID, err)
		}
		lines = append(lines, models.CartLine{CartItem: it, Product: p})
	}
	return Cart{Items: lines}, nil
}

// Add incrémente la ligne existante du produit ou en crée une (quantité 1 par défaut).
func (s *Service) Add(ctx context.Context, userID, productID gocql.UUID, qty int) (Cart, error) {
	if qty < 0 || qty > MaxLineQuantity {
		return Cart{}, ErrInvalidQuantity
	}
	if qty == 0 {
		qty = 1
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Cart{}, ErrProductNotFound
		}
		return Cart{}, err
	}

	item, err := s.carts.FindCartItem(ctx, userID, productID)
	switch {
	case err == nil:
		if item.Quantity > MaxLineQuantity-qty {
			return Cart{}, fmt.Errorf("%w: %d maximum par article", ErrInvalidQuantity, MaxLineQuantity)
		}
		item.Quantity += qty
	case errors.Is(err, store.ErrNotFound):
		item = models.CartItem{
			ID:        gocql.TimeUUID(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: time.Now().UTC(),
		}
	default:
		return Cart{}, err
	}

	if err := s.carts.SaveCartItem(ctx, &item); err != nil {
		return Cart{}, fmt.Errorf("ajout panier: %w", err)
	}
	return s.refetch(ctx, userID, EventUpdated)
}

func (s *Service) Update(ctx context.Context, userID, itemID gocql.UUID, qty int) (Cart, error) {
	if qty < 1 || qty > MaxLineQuantity {
		return Cart{}, ErrInvalidQuantity
	}
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}

	item.Quantity = qty
	if err := s.carts.SaveCartItem(ctx, &item); err != nil {
		return Cart{}, fmt.Errorf("mise à jour panier: %w", err)
	}
	return s.refetch(ctx, userID, EventUpdated)
}

func (s *Service) Remove(ctx context.Context, userID, itemID gocql.UUID) (Cart, error) {
	err := s.carts.DeleteCartItem(ctx, userID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return Cart{}, ErrItemNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("suppression article: %w", err)
	}
	return s.refetch(ctx, userID, EventUpdated)
}

func (s *Service) Clear(ctx context.Context, userID gocql.UUID) (Cart, error) {
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		return Cart{}, fmt.Errorf("vidage panier: %w", err)
	}
	return s.refetch(ctx, userID, EventCleared)
}

// All renvoie toutes les lignes de panier jointes à leur produit, tous utilisateurs confondus (admin).
func (s *Service) All(ctx context.Context) ([]models.CartLine, error) {
	items, err := s.carts.ListAllCartItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture paniers: %w", err)
	}

	cached := make(map[gocql.UUID]models.Product)
	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := cached[it.ProductID]
		if !ok {
			p, err = s.products.GetProduct(ctx, it.ProductID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("lecture produit %s: %w", it.ProductID, err)
			}
			cached[it.ProductID] = p
		}
		lines = append(lines, models.CartLine{CartItem: it, Product: p})
	}
	return lines, nil
}

// RemoveAny supprime une ligne quel que soit son propriétaire (admin).
func (s *Service) RemoveAny(ctx context.Context, itemID gocql.UUID) error {
	item, err := s.carts.GetCartItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if err := s.carts.DeleteCartItem(ctx, item.UserID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	s.notify(ctx, item.UserID, EventUpdated)
	return nil
}

func (s *Service) owned(ctx context.Context, userID, itemID gocql.UUID) (models.CartItem, error) {
	item, err := s.carts.GetCartItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && item.UserID != userID) {
		return models.CartItem{}, ErrItemNotFound
	}
	return item, err
}

// refetch relit le panier complet après chaque mutation puis notifie les abonnés.
func (s *Service) refetch(ctx context.Context, userID gocql.UUID, event string) (Cart, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	s.notify(ctx, userID, event)
	return c, nil
}

func (s *Service) notify(ctx context.Context, userID gocql.UUID, event string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, Channel(userID), event); err != nil {
		s.log.WithError(err).WithField("user_id", userID.String()).Warn("⚠️ Notification panier échouée")
	}
}
