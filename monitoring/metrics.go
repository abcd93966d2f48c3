package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Total registrations created per payment method",
		},
		[]string{"method"},
	)

	reviewDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_decisions_total",
			Help: "Total staff review decisions per outcome",
		},
		[]string{"outcome"},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Total hosted checkout sessions per terminal outcome",
		},
		[]string{"outcome"},
	)

	evidenceExchanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evidence_url_exchanges_total",
			Help: "Total signed URL exchanges against the evidence store",
		},
	)

	evidenceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evidence_url_cache_hits_total",
			Help: "Evidence URL lookups served from the in-memory cache",
		},
	)

	confirmedTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "confirmed_tickets_total",
			Help: "Confirmed tickets counted against capacity per event",
		},
		[]string{"event_id"},
	)

	pendingReviews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_reviews_total",
			Help: "Registrations currently awaiting a staff decision",
		},
	)
)

func TrackRegistrationCreated(method string) {
	if method == "" {
		method = "none"
	}
	registrationsCreated.WithLabelValues(method).Inc()
}

func TrackReviewDecision(outcome string) {
	reviewDecisions.WithLabelValues(outcome).Inc()
}

func TrackCheckoutSession(outcome string) {
	checkoutSessions.WithLabelValues(outcome).Inc()
}

func TrackEvidenceExchange(cached bool) {
	if cached {
		evidenceCacheHits.Inc()
		return
	}
	evidenceExchanges.Inc()
}

func SetConfirmedTickets(eventID string, count int) {
	confirmedTickets.WithLabelValues(eventID).Set(float64(count))
}

// ReviewCounter is what the monitor polls; satisfied by the review service.
type ReviewCounter interface {
	CountReviewables(ctx context.Context) (int, error)
}

type Monitor struct {
	counter ReviewCounter
}

func NewMonitor(counter ReviewCounter) *Monitor {
	monitor := &Monitor{counter: counter}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if count, err := m.counter.CountReviewables(ctx); err == nil {
			pendingReviews.Set(float64(count))
		}
		cancel()
	}
}
