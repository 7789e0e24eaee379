package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry      *prometheus.Registry
	Sessions      prometheus.Gauge
	PrivateRooms  prometheus.Gauge
	Messages      prometheus.Counter
	Joins         *prometheus.CounterVec
	Evictions     prometheus.Counter
	DroppedEvents prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dialnet_sessions",
			Help: "Connections currently joined to a room.",
		}),
		PrivateRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dialnet_private_rooms",
			Help: "Private rooms currently alive.",
		}),
		Messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialnet_messages_total",
			Help: "Messages accepted into a room history.",
		}),
		Joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dialnet_joins_total",
			Help: "Join attempts by result.",
		}, []string{"result"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialnet_evictions_total",
			Help: "Connections evicted by a newer connection from the same origin.",
		}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialnet_dropped_events_total",
			Help: "Events not delivered because the connection buffer was full.",
		}),
	}
	m.Registry.MustRegister(m.Sessions, m.PrivateRooms, m.Messages, m.Joins, m.Evictions, m.DroppedEvents)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
