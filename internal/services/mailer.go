package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, order models.Order) error
}

// SMTPMailer envoie les e-mails via go-mail.
type SMTPMailer struct {
	cfg config.SMTPConfig
	log logrus.FieldLogger
}

func NewSMTPMailer(cfg config.SMTPConfig, log logrus.FieldLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, to string, order models.Order) error {
	body, err := RenderOrderConfirmation(order)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Confirmation de votre commande #%s", shortID(order.ID.String())))
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	m.log.WithField("to", to).Info("📤 Envoi de l'e-mail de confirmation")
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer se contente de journaliser (SMTP non configuré).
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m LogMailer) SendOrderConfirmation(_ context.Context, to string, order models.Order) error {
	m.Log.WithFields(logrus.Fields{"to": to, "order_id": order.ID.String()}).
		Info("✉️ SMTP non configuré, e-mail de confirmation ignoré")
	return nil
}

var orderConfirmationTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"money":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"lineSum": func(it models.OrderItem) string { return fmt.Sprintf("%.2f", it.Price*float64(it.Quantity)) },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci pour votre commande !</h2>
		<p>Commande <strong>#{{.ShortID}}</strong>, statut : {{.Order.Status}}.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 8px; text-align: left;">Produit</th>
					<th style="padding: 8px; text-align: left;">Quantité</th>
					<th style="padding: 8px; text-align: left;">Prix unitaire</th>
					<th style="padding: 8px; text-align: left;">Total</th>
				</tr>
			</thead>
			<tbody>
			{{range .Order.Items}}
				<tr>
					<td style="padding: 8px;">{{.ProductName}}</td>
					<td style="padding: 8px;">{{.Quantity}}</td>
					<td style="padding: 8px;">{{money .Price}}</td>
					<td style="padding: 8px;">{{lineSum .}}</td>
				</tr>
			{{end}}
			</tbody>
		</table>
		<p><strong>Total : {{money .Order.TotalAmount}}</strong></p>
		<p>Nous vous contacterons via {{.Order.ContactMethod}} ({{.Order.ContactInfo}}).</p>
	</div>
</body>
</html>`))

// RenderOrderConfirmation produit le HTML de l'e-mail de confirmation.
func RenderOrderConfirmation(order models.Order) (string, error) {
	var buf bytes.Buffer
	err := orderConfirmationTmpl.Execute(&buf, struct {
		Order   models.Order
		ShortID string
	}{order, shortID(order.ID.String())})
	if err != nil {
		return "", fmt.Errorf("rendu e-mail: %w", err)
	}
	return buf.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
