// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records the counters the sweeper, notifier and read model emit.
type Collector struct {
	sweepCycles      prometheus.Counter
	sweepDuration    prometheus.Histogram
	remindersSent    prometheus.Counter
	remindersSkipped *prometheus.CounterVec
	pushDelivered    prometheus.Counter
	pushFailed       prometheus.Counter
	tokensPruned     prometheus.Counter
	readModelSyncs   prometheus.Counter
	readModelOffline prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sweepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_sweep_cycles_total",
			Help: "Total reminder sweep cycles executed",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "schedule_sweep_duration_seconds",
			Help:    "Duration of reminder sweep cycles",
			Buckets: prometheus.DefBuckets,
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_reminders_sent_total",
			Help: "Total appointments for which a reminder was sent and flagged",
		}),
		remindersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_reminders_skipped_total",
			Help: "Appointments skipped during a sweep, by reason",
		}, []string{"reason"}),
		pushDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_push_delivered_total",
			Help: "Push messages delivered to endpoints",
		}),
		pushFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_push_failed_total",
			Help: "Push messages that failed delivery",
		}),
		tokensPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_push_tokens_pruned_total",
			Help: "Push tokens removed after permanent delivery failure",
		}),
		readModelSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_readmodel_syncs_total",
			Help: "Successful read-model refreshes",
		}),
		readModelOffline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_readmodel_offline",
			Help: "1 while the read model is serving its cached snapshot",
		}),
	}

	reg.MustRegister(
		c.sweepCycles,
		c.sweepDuration,
		c.remindersSent,
		c.remindersSkipped,
		c.pushDelivered,
		c.pushFailed,
		c.tokensPruned,
		c.readModelSyncs,
		c.readModelOffline,
	)

	return c
}

// RecordSweep records one completed sweep cycle.
func (c *Collector) RecordSweep(duration time.Duration) {
	c.sweepCycles.Inc()
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordReminderSent records one reminder that was sent and flagged.
func (c *Collector) RecordReminderSent() {
	c.remindersSent.Inc()
}

// RecordReminderSkipped records a skipped appointment with its reason.
func (c *Collector) RecordReminderSkipped(reason string) {
	c.remindersSkipped.WithLabelValues(reason).Inc()
}

// RecordPushResults records per-endpoint delivery outcomes.
func (c *Collector) RecordPushResults(delivered, failed int) {
	c.pushDelivered.Add(float64(delivered))
	c.pushFailed.Add(float64(failed))
}

// RecordTokenPruned records a token removed after permanent failure.
func (c *Collector) RecordTokenPruned() {
	c.tokensPruned.Inc()
}

// RecordReadModelSync records a successful read-model refresh.
func (c *Collector) RecordReadModelSync() {
	c.readModelSyncs.Inc()
}

// SetReadModelOffline flips the offline indicator gauge.
func (c *Collector) SetReadModelOffline(offline bool) {
	if offline {
		c.readModelOffline.Set(1)
		return
	}
	c.readModelOffline.Set(0)
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
