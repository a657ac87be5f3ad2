package tokensync

import "time"

type Options struct {
	// PushListenAddr is where the WebSocket transport listens.
	PushListenAddr string
	// APIListenAddr is where the HTTP poll/stream surface listens.
	APIListenAddr string

	// OutQueueLimit bounds each client's outbound record queue. A
	// client that falls this far behind is dropped.
	OutQueueLimit int

	// WriteTimeout applies to individual push/stream writes.
	WriteTimeout time.Duration
}

func (o *Options) SetDefaults() {
	if o.PushListenAddr == "" {
		o.PushListenAddr = ":8080"
	}
	if o.APIListenAddr == "" {
		o.APIListenAddr = ":8081"
	}
	if o.OutQueueLimit == 0 {
		o.OutQueueLimit = 1024
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 10 * time.Second
	}
}
