package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeRoundTrip(t *testing.T) {
	h := newTestHub()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(conn, h.Attach(1, 10, nil))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]string{"op": "subscribe", "id": "inbox", "table": "messages", "filter": "receiver_id=eq.10"}))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "subscribed", f.Op)

	require.NoError(t, conn.WriteJSON(map[string]string{"op": "subscribe", "id": "bad", "table": "payroll"}))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Op)
	assert.Equal(t, "bad", f.ID)

	h.Dispatch(mustEvent(t, "messages", Insert, 1, msg{ID: 7, SenderID: 3, ReceiverID: 10}, nil))
	f = Frame{}
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "change", f.Op)
	require.NotNil(t, f.Event)
	assert.Equal(t, "7", stringify(f.Event.Record["id"]))

	require.NoError(t, conn.WriteJSON(map[string]string{"op": "ping"}))
	f = Frame{}
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "pong", f.Op)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond,
		"session is torn down when the client disconnects")
}
