// Package metrics exposes the process's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_snapshot_loads_total",
		Help: "Snapshot loads from durable storage.",
	})
	SnapshotWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_snapshot_writes_total",
		Help: "Full-collection snapshot writes.",
	})
	SnapshotCorruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_snapshot_corruptions_total",
		Help: "Corrupt snapshots replaced with seed data.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_messages_sent_total",
		Help: "Outgoing messages accepted by the lifecycle driver.",
	})
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_status_transitions_total",
		Help: "Message delivery status transitions.",
	}, []string{"to"})
	AgentReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_agent_replies_total",
		Help: "Replies appended on behalf of the agent participant.",
	})
	AgentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_agent_fallbacks_total",
		Help: "Agent replies served from the fallback string.",
	})
	ReconcilerReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_reconciler_reloads_total",
		Help: "Snapshot reloads triggered by cross-session change events.",
	})
	StorageBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lumina_storage_bytes",
		Help: "Best-effort on-disk size of the storage directory.",
	})
)
