package handlers

import (
	"context"
	"errors"
	"net/http"

	"fizzpan_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBytes = int64(65536)

type PaymentEvents interface {
	HandlePayment(ctx context.Context, ev services.PaymentEvent) error
}

type PaymentHandler struct {
	payments services.Payments
	orders   PaymentEvents
	log      logrus.FieldLogger
}

func NewPaymentHandler(payments services.Payments, orders PaymentEvents, log logrus.FieldLogger) *PaymentHandler {
	if payments == nil {
		payments = services.NoPayments{}
	}
	return &PaymentHandler{payments: payments, orders: orders, log: log}
}

// POST /api/webhooks/stripe : confirmation du paiement.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lecture corps échouée"})
		return
	}

	ev, err := h.payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, services.ErrPaymentsDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.WithError(err).Warn("⚠️ Webhook Stripe rejeté")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	if err := h.orders.HandlePayment(c.Request.Context(), ev); err != nil {
		RespondError(c, err, h.log)
		return
	}
	c.Status(http.StatusOK)
}
