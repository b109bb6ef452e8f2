package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fizzpan_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

var ErrPaymentsDisabled = errors.New("paiement par carte non configuré")

type PaymentIntent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
}

// PaymentEvent est la partie d'un webhook Stripe qui nous intéresse.
type PaymentEvent struct {
	Type     string
	IntentID string
	OrderID  string
	UserID   string
}

type Payments interface {
	CreateIntent(ctx context.Context, order models.Order, email string) (PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (PaymentEvent, error)
}

type StripePayments struct {
	webhookSecret string
	currency      string
}

func NewStripePayments(secretKey, webhookSecret, currency string) *StripePayments {
	stripe.Key = secretKey
	return &StripePayments{webhookSecret: webhookSecret, currency: strings.ToLower(currency)}
}

// AmountInCents convertit un montant décimal en plus petite unité monétaire.
func AmountInCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *StripePayments) CreateIntent(_ context.Context, order models.Order, email string) (PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(AmountInCents(order.TotalAmount)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
			"email":    email,
		},
	}
	params.SetIdempotencyKey("order-" + order.ID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("création PaymentIntent: %w", err)
	}
	return PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (s *StripePayments) ParseWebhook(payload []byte, signature string) (PaymentEvent, error) {
	var event stripe.Event
	if s.webhookSecret == "" {
		if err := json.Unmarshal(payload, &event); err != nil {
			return PaymentEvent{}, fmt.Errorf("JSON invalide: %w", err)
		}
	} else {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return PaymentEvent{}, fmt.Errorf("signature invalide: %w", err)
		}
	}

	out := PaymentEvent{Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return PaymentEvent{}, fmt.Errorf("décodage PaymentIntent: %w", err)
	}
	out.IntentID = pi.ID
	out.OrderID = pi.Metadata["order_id"]
	out.UserID = pi.Metadata["user_id"]
	return out, nil
}

// NoPayments refuse le paiement par carte (Stripe non configuré).
type NoPayments struct{}

func (NoPayments) CreateIntent(context.Context, models.Order, string) (PaymentIntent, error) {
	return PaymentIntent{}, ErrPaymentsDisabled
}

func (NoPayments) ParseWebhook([]byte, string) (PaymentEvent, error) {
	return PaymentEvent{}, ErrPaymentsDisabled
}
