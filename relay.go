package tokensync

import (
	"sync"
	"sync/atomic"

	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/tokens"
	"github.com/pvignau/design-tokens-manager/utils"
)

// SourceRelay tags directed catch-up sends made by the relay itself.
const SourceRelay = "relay"

// Relay owns the token store and fans every inbound mutation out to
// all connected clients on both transports. Consistency is
// last-write-wins: mutations are serialized by deliverLock in arrival
// order, concurrent writers to the same token have no further
// resolution.
type Relay struct {
	log   utils.Logger
	opts  Options
	store *tokens.Store
	conns *xsync.MapOf[string, *Client]

	// serializes store mutation + stamp + fan-out, so a mutation is
	// fully applied and broadcast before the next one starts
	deliverLock sync.Mutex

	relayed    atomic.Uint64
	sendErrors atomic.Uint64
}

func NewRelay(log utils.Logger, opts Options) *Relay {
	opts.SetDefaults()
	return &Relay{
		log:   log,
		opts:  opts,
		store: tokens.NewStore(),
		conns: xsync.NewMapOf[string, *Client](),
	}
}

func (r *Relay) Store() *tokens.Store {
	return r.store
}

// Attach registers a new consumer. When the relay already holds state
// the client receives a directed catch-up sync before any broadcast.
func (r *Relay) Attach(kind ClientKind) (*Client, error) {
	client := newClient(kind, r.opts.OutQueueLimit)

	r.deliverLock.Lock()
	defer r.deliverLock.Unlock()

	if r.store.Len() > 0 {
		rec, err := protocol.NewSync(r.store.Snapshot()).Stamp(SourceRelay).Encode()
		if err != nil {
			return nil, err
		}
		if err := client.drain(toyqueue.Records{rec}); err != nil {
			return nil, err
		}
	}

	r.conns.Store(client.Name, client)
	r.log.Info("relay: client attached", "name", client.Name, "kind", client.Kind.String())
	return client, nil
}

// Detach removes a client synchronously; in-flight broadcasts to it
// fail harmlessly on the closed queue.
func (r *Relay) Detach(name string) {
	client, ok := r.conns.LoadAndDelete(name)
	if !ok {
		return
	}
	client.Close()
	r.log.Info("relay: client detached", "name", name)
}

// Deliver is the single inbound entry point for all transports. It
// applies the mutation to the store, stamps the message with its
// origin and the current time, and broadcasts it to every client
// except the originating push/stream connection. Poll origins carry no
// attached handle, so nothing matches and everyone receives the echo.
func (r *Relay) Deliver(msg *protocol.Message, origin string) error {
	r.deliverLock.Lock()
	defer r.deliverLock.Unlock()

	switch msg.Type {
	case protocol.Sync:
		toks := msg.Tokens()
		r.store.ApplySync(toks)
		r.log.Info("relay: state replaced", "tokens", len(toks), "origin", origin)
	case protocol.Update:
		r.store.ApplyUpdate(msg.Token())
	case protocol.Create:
		r.store.ApplyCreate(msg.Token())
	case protocol.Delete:
		r.store.ApplyDelete(msg.TokenID())
	default:
		return protocol.ErrUnknownType
	}

	rec, err := msg.Stamp(origin).Encode()
	if err != nil {
		return err
	}

	r.broadcast(rec, origin)
	r.relayed.Add(1)
	return nil
}

// broadcast drains one record into every client queue but the
// excluded one. A failed drain drops that client and the loop goes on.
func (r *Relay) broadcast(rec []byte, except string) {
	recs := toyqueue.Records{rec}
	var dead []*Client

	r.conns.Range(func(name string, client *Client) bool {
		if name == except {
			return true
		}
		if err := client.drain(recs); err != nil {
			r.log.Error("relay: couldn't send to client", "name", name, "err", err)
			dead = append(dead, client)
		}
		return true
	})

	for _, client := range dead {
		r.sendErrors.Add(1)
		r.conns.Delete(client.Name)
		client.Close()
	}
}

// Counts reports connected clients per transport kind.
func (r *Relay) Counts() (ws, sse, total int) {
	r.conns.Range(func(_ string, client *Client) bool {
		switch client.Kind {
		case KindWS:
			ws++
		case KindSSE:
			sse++
		}
		return true
	})
	return ws, sse, ws + sse
}

// Close detaches every client.
func (r *Relay) Close() {
	r.conns.Range(func(name string, client *Client) bool {
		r.conns.Delete(name)
		client.Close()
		return true
	})
}
