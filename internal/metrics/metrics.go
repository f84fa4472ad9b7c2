// Package metrics counts store activity with Prometheus collectors held in a
// private registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "runreward"

type Metrics struct {
	Registry *prometheus.Registry

	UsersCreated          prometheus.Counter
	AuthenticationCounter *prometheus.CounterVec
	RegistrationCounter   *prometheus.CounterVec
	FavoriteCounter       *prometheus.CounterVec
	RateLimitedCounter    *prometheus.CounterVec
	SyncRunCounter        *prometheus.CounterVec
	NotificationCounter   *prometheus.CounterVec
	StoreOpHistogram      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Total number of accounts created",
		}),

		AuthenticationCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authentications_total",
				Help:      "Authentication attempts by result",
			},
			[]string{"result"},
		),

		RegistrationCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Course registration events by transition",
			},
			[]string{"transition"},
		),

		FavoriteCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorites_total",
				Help:      "Favorite changes by action",
			},
			[]string{"action"},
		),

		RateLimitedCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Attempts rejected by the rate limiter",
			},
			[]string{"action"},
		),

		SyncRunCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "External sync runs by result",
			},
			[]string{"result"},
		),

		NotificationCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Confirmation emails by provider and result",
			},
			[]string{"provider", "result"},
		),

		StoreOpHistogram: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Duration of collection loads and saves",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) RecordUserCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) RecordAuthentication(ok bool) {
	if m == nil {
		return
	}
	m.AuthenticationCounter.With(prometheus.Labels{"result": result(ok)}).Inc()
}

// RecordRegistration counts a transition: created, confirmed or cancelled.
func (m *Metrics) RecordRegistration(transition string) {
	if m == nil {
		return
	}
	m.RegistrationCounter.With(prometheus.Labels{"transition": transition}).Inc()
}

func (m *Metrics) RecordFavorite(action string) {
	if m == nil {
		return
	}
	m.FavoriteCounter.With(prometheus.Labels{"action": action}).Inc()
}

func (m *Metrics) RecordRateLimited(action string) {
	if m == nil {
		return
	}
	m.RateLimitedCounter.With(prometheus.Labels{"action": action}).Inc()
}

func (m *Metrics) RecordSync(ok bool) {
	if m == nil {
		return
	}
	m.SyncRunCounter.With(prometheus.Labels{"result": result(ok)}).Inc()
}

func (m *Metrics) RecordNotification(provider string, ok bool) {
	if m == nil {
		return
	}
	m.NotificationCounter.With(prometheus.Labels{"provider": provider, "result": result(ok)}).Inc()
}

// TrackStoreOperation returns a function that observes the time elapsed
// since start.
//
//	defer m.TrackStoreOperation("runreward-users", "load")(time.Now())
func (m *Metrics) TrackStoreOperation(collection, operation string) func(time.Time) {
	return func(start time.Time) {
		if m == nil {
			return
		}
		m.StoreOpHistogram.With(prometheus.Labels{
			"collection": collection,
			"operation":  operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// WriteFile dumps every collector to path in the text exposition format, for
// the node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
