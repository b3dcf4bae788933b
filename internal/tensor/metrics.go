package tensor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tensorsAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turbo_tensor_allocations_total",
		Help: "Total number of tensors created by the factory",
	})

	tensorsExported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turbo_tensor_exports_total",
		Help: "Total number of descriptors exported out of their handle",
	})

	tensorsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turbo_tensor_releases_total",
		Help: "Total number of descriptors freed via their deallocator",
	})

	allocatedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turbo_tensor_allocated_bytes",
		Help: "Current bytes held by live factory-created tensors",
	})
)
