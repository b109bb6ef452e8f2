package services

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchProducts(t *testing.T) {
	products := []models.Product{
		{Name: "Pizza Margherita", Description: "tomate, mozzarella"},
		{Name: "Burger", Description: "boeuf et cheddar"},
		{Name: "Salade", Description: "Mozzarella di bufala"},
	}

	got := MatchProducts(products, "  MOZZA ")
	require.Len(t, got, 2)
	assert.Equal(t, "Pizza Margherita", got[0].Name)
	assert.Equal(t, "Salade", got[1].Name)

	assert.Len(t, MatchProducts(products, ""), 3)
	assert.Empty(t, MatchProducts(products, "sushi"))
}

func TestNoSearch(t *testing.T) {
	_, err := NoSearch{}.Search(context.Background(), "pizza")
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.NoError(t, NoSearch{}.Index(context.Background(), models.Product{}))
}

func TestInlineImages(t *testing.T) {
	uri, err := InlineImages{}.Upload(context.Background(), "products", []byte("abc"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", uri)
	assert.NoError(t, InlineImages{}.Remove(context.Background(), uri))
}

func TestMinIOObjectName(t *testing.T) {
	m := &MinIOImages{bucket: "images", publicURL: "http://cdn.local"}

	obj, ok := m.objectName("http://cdn.local/images/products/a%20b.jpg")
	require.True(t, ok)
	assert.Equal(t, "products/a b.jpg", obj)

	_, ok = m.objectName("https://ailleurs.example/images/x.jpg")
	assert.False(t, ok)
	_, ok = m.objectName("http://cdn.local/images/")
	assert.False(t, ok)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".gif", extensionFor("image/gif"))
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
}

func TestTableQRCode(t *testing.T) {
	assert.Equal(t, "https://fizzpan.fr/user?table=4", TableURL("https://fizzpan.fr/", 4))

	data, err := TableQRCode("https://fizzpan.fr", 4)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, QRCodeSize, img.Bounds().Dx())
}

func TestAmountInCents(t *testing.T) {
	assert.Equal(t, int64(1999), AmountInCents(19.99))
	assert.Equal(t, int64(30), AmountInCents(0.1+0.2))
	assert.Equal(t, int64(0), AmountInCents(0))
}

func TestNoPayments(t *testing.T) {
	_, err := NoPayments{}.CreateIntent(context.Background(), models.Order{}, "")
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

func TestStripeParseWebhookWithoutSecret(t *testing.T) {
	p := NewStripePayments("", "", "EUR")
	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "object": "payment_intent",
			"metadata": {"order_id": "o-1", "user_id": "u-1"}}}
	}`)

	ev, err := p.ParseWebhook(payload, "")
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.succeeded", ev.Type)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, "o-1", ev.OrderID)
	assert.Equal(t, "u-1", ev.UserID)

	_, err = p.ParseWebhook([]byte("{"), "")
	assert.Error(t, err)
}

func TestStripeParseWebhookRejectsBadSignature(t *testing.T) {
	p := NewStripePayments("", "whsec_test", "eur")
	_, err := p.ParseWebhook([]byte(`{"type":"payment_intent.succeeded"}`), "t=1,v1=bad")
	assert.Error(t, err)
}

func TestRenderOrderConfirmation(t *testing.T) {
	order := models.Order{
		ID:            gocql.TimeUUID(),
		Status:        models.OrderPending,
		TotalAmount:   25,
		ContactMethod: models.ContactWhatsApp,
		ContactInfo:   "+33 6 00 00 00 00",
		Items: []models.OrderItem{
			{ProductName: "Pizza <Reine>", Quantity: 2, Price: 12.5},
		},
		CreatedAt: time.Now(),
	}

	html, err := RenderOrderConfirmation(order)
	require.NoError(t, err)
	assert.Contains(t, html, order.ID.String()[:8])
	assert.Contains(t, html, "Pizza &lt;Reine&gt;")
	assert.Contains(t, html, "25.00")
	assert.True(t, strings.Contains(html, "whatsapp"))
}

func TestLogMailer(t *testing.T) {
	log, hook := test.NewNullLogger()
	err := LogMailer{Log: log}.SendOrderConfirmation(context.Background(), "a@b.c", models.Order{ID: gocql.TimeUUID()})
	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "a@b.c", hook.LastEntry().Data["to"])
}
