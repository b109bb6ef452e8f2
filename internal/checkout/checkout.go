// Package checkout transforme le panier en commande.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fizzpan_back_end/internal/audit"
	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/cart"
	"fizzpan_back_end/internal/metrics"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

const (
	IdempotencyTTL = 24 * time.Hour
	mailTimeout    = 30 * time.Second
)

var (
	ErrEmptyCart          = errors.New("votre panier est vide")
	ErrInvalidContact     = errors.New("moyen de contact invalide")
	ErrMissingContactInfo = errors.New("Veuillez fournir vos coordonnées")
	ErrInProgress         = errors.New("commande déjà en cours de traitement")
	ErrPayment            = errors.New("paiement indisponible")
)

type Carts interface {
	Load(ctx context.Context, userID gocql.UUID) (cart.Cart, error)
	Clear(ctx context.Context, userID gocql.UUID) (cart.Cart, error)
}

type Idempotency interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	CompleteIdempotencyKey(ctx context.Context, key, result string, ttl time.Duration) error
	IdempotencyResult(ctx context.Context, key string) (string, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

type Request struct {
	ContactMethod string `json:"contact_method"`
	ContactInfo   string `json:"contact_info"`
	Notes         string `json:"notes"`
}

type Result struct {
	Order    models.Order            `json:"order"`
	Payment  *services.PaymentIntent `json:"payment,omitempty"`
	Replayed bool                    `json:"replayed"`
}

type Service struct {
	carts    Carts
	orders   store.OrderStore
	idem     Idempotency
	payments services.Payments
	mailer   services.Mailer
	audit    *audit.Logger
	log      logrus.FieldLogger
}

type Options struct {
	Idempotency Idempotency
	Payments    services.Payments // nil ou NoPayments : paiement par carte refusé
	Mailer      services.Mailer
	Audit       *audit.Logger
}

func NewService(carts Carts, orders store.OrderStore, opts Options, log logrus.FieldLogger) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		idem:     opts.Idempotency,
		payments: opts.Payments,
		mailer:   opts.Mailer,
		audit:    opts.Audit,
		log:      log,
	}
}

func IdempotencyKey(userID gocql.UUID, key string) string {
	return "checkout:" + userID.String() + ":" + key
}

// Checkout crée la commande et ses lignes en une écriture atomique puis vide le panier.
// Un panier vide est refusé avant toute écriture.
func (s *Service) Checkout(ctx context.Context, user models.SessionUser, req Request, idemKey string) (Result, error) {
	userID, err := gocql.ParseUUID(user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("utilisateur invalide: %w", err)
	}
	if err := s.validate(&req); err != nil {
		metrics.CheckoutFailed(failureReason(err))
		return Result{}, err
	}

	key := ""
	if idemKey = strings.TrimSpace(idemKey); idemKey != "" && s.idem != nil {
		key = IdempotencyKey(userID, idemKey)
		res, replayed, err := s.reserve(ctx, key, user)
		if err != nil || replayed {
			return res, err
		}
	}

	res, err := s.place(ctx, user, userID, req)
	if key != "" {
		if err != nil {
			if relErr := s.idem.ReleaseIdempotencyKey(ctx, key); relErr != nil {
				s.log.WithError(relErr).Warn("⚠️ Libération de la clé d'idempotence échouée")
			}
		} else if cErr := s.idem.CompleteIdempotencyKey(ctx, key, res.Order.ID.String(), IdempotencyTTL); cErr != nil {
			s.log.WithError(cErr).Warn("⚠️ Enregistrement de la clé d'idempotence échoué")
		}
	}

	if err != nil {
		metrics.CheckoutFailed(failureReason(err))
	} else {
		metrics.OrderCreated(res.Order.ContactMethod, res.Order.TotalAmount)
	}
	s.audit.Record(audit.Entry{
		UserID:     user.ID,
		Action:     "checkout",
		Resource:   "order",
		ResourceID: idString(res.Order.ID),
		Details:    map[string]interface{}{"contact_method": req.ContactMethod, "total": res.Order.TotalAmount},
		Err:        err,
	})
	return res, err
}

func (s *Service) validate(req *Request) error {
	req.ContactMethod = strings.ToLower(strings.TrimSpace(req.ContactMethod))
	req.ContactInfo = strings.TrimSpace(req.ContactInfo)
	req.Notes = strings.TrimSpace(req.Notes)

	switch req.ContactMethod {
	case models.ContactWhatsApp, models.ContactInstagram:
	case models.ContactCard:
		if !s.cardEnabled() {
			return services.ErrPaymentsDisabled
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidContact, req.ContactMethod)
	}
	if req.ContactInfo == "" {
		return ErrMissingContactInfo
	}
	return nil
}

// reserve pose la clé d'idempotence ; si elle existe déjà, renvoie la commande
// déjà créée ou ErrInProgress tant que la première requête n'a pas abouti.
func (s *Service) reserve(ctx context.Context, key string, user models.SessionUser) (Result, bool, error) {
	ok, err := s.idem.ReserveIdempotencyKey(ctx, key, IdempotencyTTL)
	if err != nil {
		return Result{}, false, fmt.Errorf("clé d'idempotence: %w", err)
	}
	if ok {
		return Result{}, false, nil
	}

	existing, err := s.idem.IdempotencyResult(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		// Expirée entre-temps : on retente une fois la réservation.
		if ok, err = s.idem.ReserveIdempotencyKey(ctx, key, IdempotencyTTL); err == nil && ok {
			return Result{}, false, nil
		}
		return Result{}, true, ErrInProgress
	}
	if err != nil {
		return Result{}, true, err
	}
	if existing == "" {
		return Result{}, true, ErrInProgress
	}

	id, err := gocql.ParseUUID(existing)
	if err != nil {
		return Result{}, true, fmt.Errorf("clé d'idempotence corrompue: %w", err)
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return Result{}, true, err
	}
	res := Result{Order: order, Replayed: true}
	if order.ContactMethod == models.ContactCard && order.Status == models.OrderPending && s.cardEnabled() {
		if pi, err := s.payments.CreateIntent(ctx, order, user.Email); err == nil {
			res.Payment = &pi
		}
	}
	s.log.WithField("order_id", existing).Info("♻️ Commande rejouée (idempotence)")
	return res, true, nil
}

func (s *Service) place(ctx context.Context, user models.SessionUser, userID gocql.UUID, req Request) (Result, error) {
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if c.IsEmpty() {
		return Result{}, ErrEmptyCart
	}

	order := buildOrder(userID, user.Username, req, c, time.Now().UTC())
	if err := s.orders.CreateWithItems(ctx, &order); err != nil {
		return Result{}, fmt.Errorf("création commande: %w", err)
	}

	res := Result{Order: order}
	if req.ContactMethod == models.ContactCard {
		pi, err := s.payments.CreateIntent(ctx, order, user.Email)
		if err != nil {
			s.log.WithError(err).WithField("order_id", order.ID.String()).Error("❌ Erreur Stripe")
			if uErr := s.orders.UpdateOrderStatus(ctx, order.ID, models.OrderCancelled); uErr != nil {
				s.log.WithError(uErr).Error("❌ Annulation de la commande impayée échouée")
			}
			return Result{}, fmt.Errorf("%w: %v", ErrPayment, err)
		}
		if err := s.orders.SetPaymentIntent(ctx, order.ID, pi.ID); err != nil {
			s.log.WithError(err).Warn("⚠️ Enregistrement du PaymentIntent échoué")
		}
		res.Order.PaymentIntentID = pi.ID
		res.Payment = &pi
	}

	if _, err := s.carts.Clear(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("❌ Panier non vidé après commande")
	}

	s.sendConfirmation(user.Email, res.Order)
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.String(),
		"total":    order.TotalAmount,
		"items":    len(order.Items),
	}).Info("🧾 Commande créée")
	return res, nil
}

// buildOrder fige le prix courant de chaque produit dans les lignes de commande.
func buildOrder(userID gocql.UUID, username string, req Request, c cart.Cart, now time.Time) models.Order {
	total, _ := c.Total().Float64()
	order := models.Order{
		ID:            gocql.UUIDFromTime(now),
		UserID:        userID,
		Username:      username,
		Status:        models.OrderPending,
		TotalAmount:   total,
		ContactMethod: req.ContactMethod,
		ContactInfo:   req.ContactInfo,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Items = make([]models.OrderItem, 0, len(c.Items))
	for _, l := range c.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:           gocql.TimeUUID(),
			OrderID:      order.ID,
			ProductID:    l.ProductID,
			ProductName:  l.Product.Name,
			ProductImage: l.Product.Image,
			Quantity:     l.Quantity,
			Price:        l.Product.Price,
		})
	}
	return order
}

func (s *Service) cardEnabled() bool {
	if s.payments == nil {
		return false
	}
	_, disabled := s.payments.(services.NoPayments)
	return !disabled
}

func (s *Service) sendConfirmation(to string, order models.Order) {
	if s.mailer == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.SendOrderConfirmation(ctx, to, order); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID.String()).Error("❌ Erreur envoi e-mail de confirmation")
		}
	}()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidContact), errors.Is(err, ErrMissingContactInfo):
		return "invalid_contact"
	case errors.Is(err, services.ErrPaymentsDisabled), errors.Is(err, ErrPayment):
		return "payment"
	case errors.Is(err, ErrInProgress):
		return "duplicate"
	default:
		return "error"
	}
}

func idString(id gocql.UUID) string {
	if id == (gocql.UUID{}) {
		return ""
	}
	return id.String()
}
