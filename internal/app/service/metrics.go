package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicbot_queue_cache_hits_total",
		Help: "Lecturas de cola servidas desde el cache local.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicbot_queue_cache_misses_total",
		Help: "Lecturas de cola que tuvieron que ir al store.",
	})
	audioEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musicbot_audio_events_total",
		Help: "Eventos del servidor de audio por tipo y resultado.",
	}, []string{"type", "result"})
)
