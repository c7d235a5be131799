package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var engineOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "engine_operations_total",
		Help: "Engine operations by outcome",
	},
	[]string{"operation", "outcome"},
)
