package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	inboundMessages prometheus.Counter
	framesSent      prometheus.Counter
	protocolErrors  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wikidata_mcp_sessions_active",
			Help: "Number of currently registered sessions.",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wikidata_mcp_sessions_total",
			Help: "Total sessions created since process start.",
		}),
		inboundMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "wikidata_mcp_inbound_messages_total",
			Help: "Protocol messages accepted by the inbound router.",
		}),
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "wikidata_mcp_frames_sent_total",
			Help: "SSE frames written to push streams, including keep-alives.",
		}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "wikidata_mcp_protocol_errors_total",
			Help: "Error responses produced by protocol runners.",
		}),
	}
}
