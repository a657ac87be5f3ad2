package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pvignau/design-tokens-manager/tokens"
)

func TestParseSync(t *testing.T) {
	raw := []byte(`{"type":"sync","payload":{"tokens":[{"id":"c1","name":"Brand/Primary","type":"color","value":"#0066CC"}]}}`)

	msg, err := Parse(raw)
	assert.NoError(t, err)
	assert.Equal(t, Sync, msg.Type)

	toks := msg.Tokens()
	assert.Len(t, toks, 1)
	assert.Equal(t, "c1", toks[0].ID)
	assert.Equal(t, tokens.TypeColor, toks[0].Type)
	assert.Equal(t, "#0066CC", toks[0].Value)
}

func TestParseIncremental(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"update","payload":{"token":{"id":"c1","name":"a","type":"color","value":"#fff"}}}`))
	assert.NoError(t, err)
	assert.Equal(t, "c1", msg.Token().ID)

	msg, err = Parse([]byte(`{"type":"delete","payload":{"tokenId":"c1"}}`))
	assert.NoError(t, err)
	assert.Equal(t, "c1", msg.TokenID())
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want error
	}{
		"not json":          {`{{{`, ErrBadMessage},
		"unknown type":      {`{"type":"nuke","payload":{}}`, ErrUnknownType},
		"sync no tokens":    {`{"type":"sync","payload":{}}`, ErrBadPayload},
		"update no token":   {`{"type":"update","payload":{}}`, ErrBadPayload},
		"delete no id":      {`{"type":"delete","payload":{}}`, ErrBadPayload},
		"create bad nested": {`{"type":"create","payload":{"token":"nope"}}`, ErrBadPayload},
	}

	for name, c := range cases {
		_, err := Parse([]byte(c.raw))
		assert.ErrorIs(t, err, c.want, name)
	}
}

func TestStampAndEncode(t *testing.T) {
	msg := NewSync([]tokens.Token{{ID: "c1", Name: "a", Type: tokens.TypeColor, Value: "#fff"}})
	msg.Stamp("ws:abc")

	raw, err := msg.Encode()
	assert.NoError(t, err)

	var wire map[string]any
	assert.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "sync", wire["type"])
	assert.Equal(t, "ws:abc", wire["source"])
	assert.NotZero(t, wire["timestamp"])

	again, err := Parse(raw)
	assert.NoError(t, err)
	assert.Equal(t, msg.Source, again.Source)
	assert.Equal(t, msg.Timestamp, again.Timestamp)
}

func TestNewSyncEmptySetStaysValid(t *testing.T) {
	raw, err := NewSync(nil).Encode()
	assert.NoError(t, err)

	msg, err := Parse(raw)
	assert.NoError(t, err)
	assert.Empty(t, msg.Tokens())
}
