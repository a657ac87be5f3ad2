package network

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	tokensync "github.com/pvignau/design-tokens-manager"
	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/tokens"
	"github.com/pvignau/design-tokens-manager/utils"
)

func pushServer(t *testing.T) (*tokensync.Relay, *httptest.Server, string) {
	t.Helper()

	log := utils.NewDefaultLogger(slog.LevelError)
	relay := tokensync.NewRelay(log, tokensync.Options{})
	server := NewServer(log, relay, tokensync.Options{})

	api := httptest.NewServer(server.APIHandler())
	t.Cleanup(api.Close)
	push := httptest.NewServer(server.PushHandler())
	t.Cleanup(push.Close)

	return relay, api, "ws" + strings.TrimPrefix(push.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err)

	msg, err := protocol.Parse(raw)
	assert.NoError(t, err)
	return msg
}

func waitClients(t *testing.T, relay *tokensync.Relay, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, total := relay.Counts(); total == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never reached %d clients", want)
}

// The scenario from the sync design: push client A publishes a sync,
// every other client sees it source-tagged, A gets no echo, and the
// poll surface reflects the same state.
func TestPushSyncFansOutAcrossTransports(t *testing.T) {
	relay, api, url := pushServer(t)

	a := dial(t, url)
	b := dial(t, url)
	waitClients(t, relay, 2)

	err := a.WriteMessage(websocket.TextMessage, []byte(syncBody))
	assert.NoError(t, err)

	got := readMessage(t, b)
	assert.Equal(t, protocol.Sync, got.Type)
	assert.Len(t, got.Tokens(), 1)
	assert.Equal(t, "c1", got.Tokens()[0].ID)
	assert.True(t, strings.HasPrefix(got.Source, "ws:"), "source %q", got.Source)
	assert.NotZero(t, got.Timestamp)

	// the poll surface sees the same single token
	res, err := http.Get(api.URL + "/api/tokens")
	assert.NoError(t, err)
	defer res.Body.Close()

	var body tokensResponse
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Tokens, 1)
	assert.Equal(t, 2, body.Clients.WS)

	// no echo back to the originator
	_ = a.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err = a.ReadMessage()
	assert.Error(t, err)
}

func TestLateJoinerGetsCatchUp(t *testing.T) {
	relay, _, url := pushServer(t)

	toks := []tokens.Token{{ID: "c1", Name: "Brand/Primary", Type: tokens.TypeColor, Value: "#0066CC", Origin: tokens.OriginManual}}
	assert.NoError(t, relay.Deliver(protocol.NewSync(toks), "post"))

	late := dial(t, url)

	msg := readMessage(t, late)
	assert.Equal(t, protocol.Sync, msg.Type)
	assert.Equal(t, tokensync.SourceRelay, msg.Source)
	assert.Len(t, msg.Tokens(), 1)
}

func TestMalformedPushMessageIsDropped(t *testing.T) {
	relay, _, url := pushServer(t)

	a := dial(t, url)
	waitClients(t, relay, 1)

	assert.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{{{ nope")))
	assert.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(syncBody)))

	deadline := time.Now().Add(2 * time.Second)
	for relay.Store().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// the bad frame was dropped, the good one still landed
	assert.Equal(t, 1, relay.Store().Len())
	_, _, total := relay.Counts()
	assert.Equal(t, 1, total)
}
