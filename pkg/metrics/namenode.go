package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NamenodeMetrics tracks the coordinator's control-plane activity. All
// methods are nil-safe so call sites need no enablement checks.
type NamenodeMetrics struct {
	filesStored     prometheus.Counter
	filesDeleted    prometheus.Counter
	chunksPlanned   prometheus.Counter
	repairsFired    *prometheus.CounterVec
	activeDatanodes prometheus.Gauge
	trackedChunks   prometheus.Gauge
}

// NewNamenodeMetrics creates the coordinator metric set, or nil when
// metrics are disabled.
func NewNamenodeMetrics() *NamenodeMetrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}
	return &NamenodeMetrics{
		filesStored: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ww_namenode_files_stored_total",
			Help: "Total number of file store plans issued",
		}),
		filesDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ww_namenode_files_deleted_total",
			Help: "Total number of file delete operations",
		}),
		chunksPlanned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ww_namenode_chunks_planned_total",
			Help: "Total number of chunks planned across all stored files",
		}),
		repairsFired: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ww_namenode_repairs_fired_total",
			Help: "Replication repairs dispatched by the reconciliation loop",
		}, []string{"kind"}), // "replicate", "offload"
		activeDatanodes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ww_namenode_active_datanodes",
			Help: "Datanodes inside the liveness window",
		}),
		trackedChunks: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ww_namenode_tracked_chunks",
			Help: "Chunk records currently held in coordinator metadata",
		}),
	}
}

// ObserveStoreFile records a store plan of n chunks.
func (m *NamenodeMetrics) ObserveStoreFile(n int) {
	if m == nil {
		return
	}
	m.filesStored.Inc()
	m.chunksPlanned.Add(float64(n))
}

// ObserveDeleteFile records a file deletion.
func (m *NamenodeMetrics) ObserveDeleteFile() {
	if m == nil {
		return
	}
	m.filesDeleted.Inc()
}

// ObserveRepair records a dispatched repair of the given kind.
func (m *NamenodeMetrics) ObserveRepair(kind string) {
	if m == nil {
		return
	}
	m.repairsFired.WithLabelValues(kind).Inc()
}

// SetClusterGauges records the reconciliation loop's view of the cluster.
func (m *NamenodeMetrics) SetClusterGauges(activeDatanodes, trackedChunks int) {
	if m == nil {
		return
	}
	m.activeDatanodes.Set(float64(activeDatanodes))
	m.trackedChunks.Set(float64(trackedChunks))
}
