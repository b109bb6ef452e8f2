// Package orders expose la lecture des commandes, leur suivi et les statistiques admin.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const recentOrdersLimit = 5

type Service struct {
	orders   store.OrderStore
	profiles store.ProfileStore
	products store.ProductStore
	log      logrus.FieldLogger
}

func NewService(orders store.OrderStore, profiles store.ProfileStore, products store.ProductStore, log logrus.FieldLogger) *Service {
	return &Service{orders: orders, profiles: profiles, products: products, log: log}
}

// List : un admin voit toutes les commandes, un utilisateur uniquement les siennes.
func (s *Service) List(ctx context.Context, user models.SessionUser) ([]models.Order, error) {
	if user.IsAdmin() {
		return s.ListAll(ctx)
	}
	id, err := gocql.ParseUUID(user.ID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	list, err := s.orders.ListOrdersByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

// ListAll renvoie toutes les commandes avec leurs lignes et le nom du client.
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	if list == nil {
		list = []models.Order{}
	}
	s.attachUsernames(ctx, list)
	return list, nil
}

// Get renvoie la commande ; store.ErrNotFound si elle appartient à un autre utilisateur.
func (s *Service) Get(ctx context.Context, id gocql.UUID, user models.SessionUser) (models.Order, error) {
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !user.IsAdmin() && o.UserID.String() != user.ID {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

// UpdateStatus accepte tout statut des deux vocabulaires ; aucune transition n'est interdite.
func (s *Service) UpdateStatus(ctx context.Context, id gocql.UUID, raw string) (models.Order, error) {
	status, err := NormalizeStatus(raw)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.orders.UpdateOrderStatus(ctx, id, status); err != nil {
		return models.Order{}, err
	}
	s.log.WithFields(logrus.Fields{"order_id": id.String(), "status": status}).Info("📦 Statut de commande mis à jour")
	return s.orders.GetOrder(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.log.WithField("order_id", id.String()).Info("🗑️ Commande supprimée")
	return nil
}

// Stats calcule le chiffre d'affaires (commandes terminées) et les compteurs du tableau de bord.
func (s *Service) Stats(ctx context.Context) (models.OrderStats, error) {
	list, err := s.ListAll(ctx)
	if err != nil {
		return models.OrderStats{}, err
	}

	stats := models.OrderStats{TotalOrders: len(list), RecentOrders: []models.Order{}}
	revenue := decimal.Zero
	var completed []models.Order
	for _, o := range list {
		switch o.Status {
		case models.OrderCompleted:
			stats.CompletedOrders++
			revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
			completed = append(completed, o)
		case models.OrderPending:
			stats.PendingOrders++
		case models.OrderProcessing:
			stats.ProcessingOrders++
		case models.OrderCancelled:
			stats.CancelledOrders++
		}
	}
	stats.TotalRevenue, _ = revenue.Round(2).Float64()

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})
	if len(completed) > recentOrdersLimit {
		completed = completed[:recentOrdersLimit]
	}
	stats.RecentOrders = append(stats.RecentOrders, completed...)

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return models.OrderStats{}, fmt.Errorf("lecture produits: %w", err)
	}
	stats.TotalProducts = len(products)

	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return models.OrderStats{}, fmt.Errorf("lecture profils: %w", err)
	}
	stats.TotalUsers = len(profiles)
	return stats, nil
}

// HandlePayment applique un événement Stripe : paiement réussi → commande terminée.
func (s *Service) HandlePayment(ctx context.Context, ev services.PaymentEvent) error {
	entry := s.log.WithFields(logrus.Fields{"event": ev.Type, "payment_intent": ev.IntentID, "order_id": ev.OrderID})

	switch ev.Type {
	case "payment_intent.succeeded":
		id, err := gocql.ParseUUID(ev.OrderID)
		if err != nil {
			entry.Warn("⚠️ PaymentIntent sans commande associée")
			return nil
		}
		err = s.orders.UpdateOrderStatus(ctx, id, models.OrderCompleted)
		if errors.Is(err, store.ErrNotFound) {
			entry.Warn("⚠️ Commande introuvable pour le paiement")
			return nil
		}
		if err != nil {
			return err
		}
		entry.Info("💳 Paiement confirmé")
	case "payment_intent.payment_failed":
		entry.Warn("❌ Paiement refusé")
	default:
		entry.Debug("ℹ️ Événement ignoré")
	}
	return nil
}

func (s *Service) attachUsernames(ctx context.Context, list []models.Order) {
	names := map[gocql.UUID]string{}
	for i := range list {
		uid := list[i].UserID
		name, ok := names[uid]
		if !ok {
			if p, err := s.profiles.GetProfile(ctx, uid); err == nil {
				name = p.Username
			}
			names[uid] = name
		}
		list[i].Username = name
	}
}
