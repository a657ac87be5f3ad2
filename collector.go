package tokensync

import (
	"github.com/prometheus/client_golang/prometheus"
)

type RelayCollector struct {
	relay *Relay

	clientsConnected *prometheus.Desc
	tokensStored     *prometheus.Desc
	messagesRelayed  *prometheus.Desc
	sendErrors       *prometheus.Desc
	lastSync         *prometheus.Desc
}

func NewRelayCollector(relay *Relay) *RelayCollector {
	return &RelayCollector{
		relay: relay,

		clientsConnected: prometheus.NewDesc(
			"tokensync_clients_connected",
			"Number of currently connected clients per transport",
			[]string{"transport"}, nil,
		),
		tokensStored: prometheus.NewDesc(
			"tokensync_tokens_stored",
			"Number of tokens in the relay state",
			nil, nil,
		),
		messagesRelayed: prometheus.NewDesc(
			"tokensync_messages_relayed_total",
			"Total number of messages accepted and fanned out",
			nil, nil,
		),
		sendErrors: prometheus.NewDesc(
			"tokensync_send_errors_total",
			"Total number of per-client send failures during broadcast",
			nil, nil,
		),
		lastSync: prometheus.NewDesc(
			"tokensync_last_sync_timestamp_seconds",
			"Unix time of the last full state replacement",
			nil, nil,
		),
	}
}

func (c *RelayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.clientsConnected
	ch <- c.tokensStored
	ch <- c.messagesRelayed
	ch <- c.sendErrors
	ch <- c.lastSync
}

func (c *RelayCollector) Collect(ch chan<- prometheus.Metric) {
	ws, sse, _ := c.relay.Counts()
	ch <- prometheus.MustNewConstMetric(
		c.clientsConnected, prometheus.GaugeValue, float64(ws), "ws",
	)
	ch <- prometheus.MustNewConstMetric(
		c.clientsConnected, prometheus.GaugeValue, float64(sse), "sse",
	)
	ch <- prometheus.MustNewConstMetric(
		c.tokensStored, prometheus.GaugeValue, float64(c.relay.store.Len()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.messagesRelayed, prometheus.CounterValue, float64(c.relay.relayed.Load()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.sendErrors, prometheus.CounterValue, float64(c.relay.sendErrors.Load()),
	)

	var last float64
	if t := c.relay.store.LastSync(); !t.IsZero() {
		last = float64(t.Unix())
	}
	ch <- prometheus.MustNewConstMetric(
		c.lastSync, prometheus.GaugeValue, last,
	)
}
