package wsfeed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

func TestServerBroadcastsTradeToConnectedClient(t *testing.T) {
	s := NewServer(nil, DefaultConfig())
	s.Run()
	defer s.Stop()

	httpServer := httptest.NewServer(http.HandlerFunc(s.Handler()))
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the hub a moment to register the client before broadcasting
	assert.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.BroadcastTrade(lob.Trade{BuyOrderID: 1, SellOrderID: 2, Price: 100, Quantity: 5})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "trade", msg.Type)
}
