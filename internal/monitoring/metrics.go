package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	StorageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_storage_operations_total",
			Help: "Storage adapter write operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)
	AuditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_audit_entries_total",
			Help: "Service audit log writes by action and result",
		},
		[]string{"action", "result"},
	)
	Backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_backups_total",
			Help: "Backup runs by provider and final status",
		},
		[]string{"provider", "status"},
	)
	BackupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courier_backup_duration_seconds",
			Help:    "Duration of backup uploads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{StorageOperations, AuditEntries, Backups, BackupDuration} {
			if err := prometheus.Register(c); err != nil {
				log.Error().Err(err).Msg("Failed to register metric")
			}
		}
	})
}

// ObserveWrite counts a storage write and returns err unchanged.
func ObserveWrite(backend, operation string, err error) error {
	result := "success"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(backend, operation, result).Inc()
	return err
}
