package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musicbot_commands_total",
		Help: "Comandos despachados por resultado.",
	}, []string{"command", "outcome"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "musicbot_command_duration_seconds",
		Help:    "Duración del pipeline de dispatch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
)

// nombres desconocidos van todos a "unknown" para no explotar la cardinalidad
func metricName(c *Catalog, name string) string {
	if _, ok := c.Lookup(name); ok {
		return name
	}
	return "unknown"
}
