package user

import (
	"context"
	"net/http"
	"time"

	"fizzpan_back_end/internal/cart"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const wsPingInterval = 30 * time.Second

// Subscriber donne accès aux notifications Redis du panier.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) *redis.PubSub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// L'origine est déjà filtrée par CORS et le token est exigé.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type cartMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	cart.Summary
}

// GET /api/cart/ws : pousse le panier complet à chaque modification.
func (h *CartHandler) WebSocket(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	if h.sub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Synchronisation indisponible"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("❌ Erreur upgrade WebSocket")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.sub.Subscribe(ctx, cart.Channel(userID))
	defer pubsub.Close()
	ch := pubsub.Channel()

	// Lecture en arrière-plan : seule la fermeture côté client nous intéresse.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func(kind, message string) bool {
		crt, err := h.svc.Load(ctx, userID)
		if err != nil {
			h.log.WithError(err).WithField("user_id", userID.String()).Warn("⚠️ Lecture panier pour WebSocket échouée")
			return true
		}
		if err := conn.WriteJSON(cartMessage{Type: kind, Message: message, Summary: crt.Summary()}); err != nil {
			h.log.WithError(err).Debug("❌ Erreur envoi WebSocket")
			return false
		}
		return true
	}

	if !push("connected", "Synchronisation panier activée") {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if msg.Payload == cart.EventUpdated || msg.Payload == cart.EventCleared {
				if !push("cart_updated", "") {
					return
				}
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
