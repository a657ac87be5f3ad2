package tokensync

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/learn-decentralized-systems/toyqueue"
)

type ClientKind byte

const (
	KindWS ClientKind = iota + 1
	KindSSE
)

func (k ClientKind) String() string {
	switch k {
	case KindWS:
		return "ws"
	case KindSSE:
		return "sse"
	}
	return "unknown"
}

// Client is the relay-side handle for one connected consumer. The
// relay drains broadcast records into the queue without blocking; the
// transport's write loop feeds them out.
type Client struct {
	Name string
	Kind ClientKind

	queue *toyqueue.RecordQueue
	feed  toyqueue.FeedDrainCloser
}

func newClient(kind ClientKind, limit int) *Client {
	q := &toyqueue.RecordQueue{Limit: limit}
	return &Client{
		Name:  fmt.Sprintf("%s:%s", kind, uuid.Must(uuid.NewV7())),
		Kind:  kind,
		queue: q,
		feed:  q.Blocking(),
	}
}

// Feed blocks until records are queued or the client is closed.
func (c *Client) Feed() (toyqueue.Records, error) {
	return c.feed.Feed()
}

// drain is the relay side: non-blocking, an over-capacity queue
// surfaces ErrWouldBlock and the relay drops the client.
func (c *Client) drain(recs toyqueue.Records) error {
	return c.queue.Drain(recs)
}

func (c *Client) Close() {
	_ = c.queue.Close()
	// an empty drain wakes a Feed blocked on the emptied queue
	_ = c.queue.Drain(toyqueue.Records{})
}
