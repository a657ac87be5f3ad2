package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/tokens"
	"github.com/pvignau/design-tokens-manager/utils"
)

type PollOptions struct {
	// BaseURL of the relay's API listener, e.g. http://localhost:8081.
	BaseURL string

	Interval       time.Duration
	InitialDelay   time.Duration
	Timeout        time.Duration
	ThrottleWindow time.Duration

	// EchoCacheSize bounds the cache of recently posted payload
	// digests used for self-echo suppression.
	EchoCacheSize int
	EchoTTL       time.Duration
}

func (o *PollOptions) SetDefaults() {
	if o.Interval == 0 {
		o.Interval = 3 * time.Second
	}
	if o.InitialDelay == 0 {
		o.InitialDelay = time.Second
	}
	if o.Timeout == 0 {
		o.Timeout = 3 * time.Second
	}
	if o.ThrottleWindow == 0 {
		o.ThrottleWindow = DefaultThrottleWindow
	}
	if o.EchoCacheSize == 0 {
		o.EchoCacheSize = 64
	}
	if o.EchoTTL == 0 {
		o.EchoTTL = 10 * time.Second
	}
}

// SnapshotFunc receives each changed snapshot that passes the
// throttle.
type SnapshotFunc func(toks []tokens.Token)

// PollStatusFunc surfaces the health of the poll transport; err is nil
// while polling succeeds.
type PollStatusFunc func(connected bool, err error)

// Poller is the consumer for environments that cannot hold a
// persistent connection: it polls the snapshot endpoint on a fixed
// interval and pushes mutations over POST. One attempt per tick, a
// failed tick surfaces status and waits for the next one.
type Poller struct {
	log      utils.Logger
	opts     PollOptions
	handler  SnapshotFunc
	onStatus PollStatusFunc

	http     *http.Client
	throttle *Throttle

	lastDigest uint64
	healthy    bool // starts true so the first failure notifies

	// digests of payloads this poller recently posted; the handle-less
	// poll transport receives its own echo, this filters it out
	posted *lru.Cache[uint64, time.Time]
}

func NewPoller(log utils.Logger, opts PollOptions, handler SnapshotFunc, onStatus PollStatusFunc) (*Poller, error) {
	opts.SetDefaults()

	posted, err := lru.New[uint64, time.Time](opts.EchoCacheSize)
	if err != nil {
		return nil, err
	}

	return &Poller{
		log:      log,
		opts:     opts,
		handler:  handler,
		onStatus: onStatus,
		http:     &http.Client{Timeout: opts.Timeout},
		throttle: NewThrottle(opts.ThrottleWindow),
		healthy:  true,
		posted:   posted,
	}, nil
}

// Run polls until ctx is cancelled. It blocks; run it on its own
// goroutine.
func (p *Poller) Run(ctx context.Context) {
	select {
	case <-time.After(p.opts.InitialDelay):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

type snapshotResponse struct {
	Tokens    []tokens.Token `json:"tokens"`
	Timestamp int64          `json:"timestamp"`
}

func (p *Poller) tick(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.BaseURL+"/api/tokens", nil)
	if err != nil {
		p.setHealth(false, err)
		return
	}

	res, err := p.http.Do(req)
	if err != nil {
		p.setHealth(false, err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		p.setHealth(false, fmt.Errorf("poll: unexpected status %d", res.StatusCode))
		return
	}

	var snap snapshotResponse
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		p.setHealth(false, err)
		return
	}
	p.setHealth(true, nil)

	digest := tokens.DigestOf(snap.Tokens)
	if digest == p.lastDigest {
		return
	}
	if at, ok := p.posted.Get(digest); ok && time.Since(at) < p.opts.EchoTTL {
		p.lastDigest = digest
		return
	}
	if !p.throttle.ShouldApply(time.Now()) {
		return
	}

	p.lastDigest = digest
	p.handler(snap.Tokens)
}

// Post sends one mutation over the request channel.
func (p *Poller) Post(ctx context.Context, msg *protocol.Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL+"/api/tokens", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.http.Do(req)
	if err != nil {
		p.setHealth(false, err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("poll: relay rejected message, status %d", res.StatusCode)
	}

	// remember what our own sync will look like coming back
	if msg.Type == protocol.Sync {
		p.posted.Add(tokens.DigestOf(msg.Tokens()), time.Now())
	}
	return nil
}

func (p *Poller) setHealth(ok bool, err error) {
	if err != nil {
		p.log.Warn("poll: request failed", "err", err)
	}
	if ok == p.healthy {
		return
	}
	p.healthy = ok
	if p.onStatus != nil {
		p.onStatus(ok, err)
	}
}
