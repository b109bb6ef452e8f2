package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fizzpan_back_end/internal/cart"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	summaryBody
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var fr wsFrame
	require.NoError(t, json.Unmarshal(data, &fr))
	return fr
}

func TestCartWebSocketPushesUpdates(t *testing.T) {
	f := newFixture(t)
	pizza := f.product(t, "Pizza", 12.5)

	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("X-Test-User", "alice")
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/cart/ws", header)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	hello := readFrame(t, conn)
	assert.Equal(t, "connected", hello.Type)
	assert.NotEmpty(t, hello.Message)
	assert.Equal(t, 0, hello.Count)
	assert.NotNil(t, hello.Items)

	channel := cart.Channel(f.alice)
	require.Eventually(t, func() bool {
		return f.mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	// les mutations d'un autre utilisateur ne sont pas poussées
	w := f.do(t, http.MethodPost, "/api/cart/items", "bob", gin.H{"product_id": pizza.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/cart/items", "alice", gin.H{"product_id": pizza.ID.String(), "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	upd := readFrame(t, conn)
	assert.Equal(t, "cart_updated", upd.Type)
	assert.Len(t, upd.Items, 1)
	assert.Equal(t, 2, upd.Count)
	assert.InDelta(t, 25.0, upd.Total, 1e-9)

	w = f.do(t, http.MethodDelete, "/api/cart", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := readFrame(t, conn)
	assert.Equal(t, "cart_updated", cleared.Type)
	assert.Equal(t, 0, cleared.Count)

	// fermeture côté client : le handler se désabonne
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return f.mr.PubSubNumSub(channel)[channel] == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCartWebSocketRequiresSession(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/cart/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
