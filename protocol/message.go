package protocol

import (
	"encoding/json"
	"errors"
	"time"

	perrors "github.com/pkg/errors"

	"github.com/pvignau/design-tokens-manager/tokens"
)

type MsgType string

const (
	Sync   MsgType = "sync"
	Update MsgType = "update"
	Create MsgType = "create"
	Delete MsgType = "delete"
)

var (
	ErrBadMessage  = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("missing or malformed payload")
)

// Message is the wire envelope shared by every transport.
type Message struct {
	Type      MsgType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Source    string          `json:"source,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type SyncPayload struct {
	Tokens []tokens.Token `json:"tokens"`
}

type UpdatePayload struct {
	Token tokens.Token `json:"token"`
}

type CreatePayload struct {
	Token tokens.Token `json:"token"`
}

type DeletePayload struct {
	TokenID string `json:"tokenId"`
}

// Parse decodes and validates a wire message. A message that fails
// here must be dropped by the caller; later payload accessors on a
// parsed message cannot fail.
func Parse(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, perrors.Wrap(ErrBadMessage, err.Error())
	}

	switch msg.Type {
	case Sync:
		var p SyncPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Tokens == nil {
			return nil, ErrBadPayload
		}
	case Update, Create:
		var p UpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Token.ID == "" {
			return nil, ErrBadPayload
		}
	case Delete:
		var p DeletePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.TokenID == "" {
			return nil, ErrBadPayload
		}
	default:
		return nil, ErrUnknownType
	}

	return &msg, nil
}

// Tokens returns the payload of a sync message.
func (m *Message) Tokens() []tokens.Token {
	var p SyncPayload
	_ = json.Unmarshal(m.Payload, &p)
	return p.Tokens
}

// Token returns the payload of an update or create message.
func (m *Message) Token() tokens.Token {
	var p UpdatePayload
	_ = json.Unmarshal(m.Payload, &p)
	return p.Token
}

// TokenID returns the payload of a delete message.
func (m *Message) TokenID() string {
	var p DeletePayload
	_ = json.Unmarshal(m.Payload, &p)
	return p.TokenID
}

func NewSync(toks []tokens.Token) *Message {
	if toks == nil {
		toks = []tokens.Token{}
	}
	return mustMessage(Sync, SyncPayload{Tokens: toks})
}

func NewUpdate(tok tokens.Token) *Message {
	return mustMessage(Update, UpdatePayload{Token: tok})
}

func NewCreate(tok tokens.Token) *Message {
	return mustMessage(Create, CreatePayload{Token: tok})
}

func NewDelete(id string) *Message {
	return mustMessage(Delete, DeletePayload{TokenID: id})
}

func mustMessage(t MsgType, payload any) *Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		// payload structs above marshal unconditionally
		panic(err)
	}
	return &Message{Type: t, Payload: raw}
}

// Stamp tags the message with its origin and the current wall clock
// (milliseconds since epoch, matching the wire format).
func (m *Message) Stamp(source string) *Message {
	m.Source = source
	m.Timestamp = time.Now().UnixMilli()
	return m
}

func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
