package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Donation initiation metrics
	donationsInitiatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_initiated_total",
		Help: "Total donation initiation attempts",
	}, []string{
		"result", // created, rejected, failed
	})

	donationAmountGrosze = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_amount_grosze_total",
		Help: "Total donation amount in minor units (for volume tracking)",
	}, []string{
		"currency",
		"status", // pending at initiation, paid on webhook approval
	})

	donationReferenceConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donation_reference_conflicts_total",
		Help: "External reference collisions that forced a regeneration",
	})

	// Webhook metrics
	webhookNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiserv_webhook_notifications_total",
		Help: "Total gateway notifications by processing outcome",
	}, []string{
		"outcome", // missing_reference, duplicate, unknown_donation, signature_mismatch, recorded, transitioned, error
	})

	webhookProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiserv_webhook_processing_duration_seconds",
		Help:    "Time to process a gateway notification",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{
		"outcome",
	})

	signatureVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiserv_signature_verifications_total",
		Help: "Inbound signature verification verdicts",
	}, []string{
		"verdict", // valid, mismatch, skipped_no_hash, skipped_no_secret
	})

	donationTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_status_transitions_total",
		Help: "Donation status transitions applied from notifications",
	}, []string{
		"status",
	})
)

// RecordDonationInitiated records the result of an initiation request
func RecordDonationInitiated(result, currency string, amountGrosze int64) {
	donationsInitiatedTotal.WithLabelValues(result).Inc()
	if result == "created" {
		donationAmountGrosze.WithLabelValues(currency, "pending").Add(float64(amountGrosze))
	}
}

// RecordReferenceConflict counts a regenerated external reference
func RecordReferenceConflict() {
	donationReferenceConflicts.Inc()
}

// RecordWebhookNotification records a processed notification
func RecordWebhookNotification(outcome string, duration float64) {
	webhookNotificationsTotal.WithLabelValues(outcome).Inc()
	webhookProcessingDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordSignatureVerification records an inbound verification verdict
func RecordSignatureVerification(verdict string) {
	signatureVerificationsTotal.WithLabelValues(verdict).Inc()
}

// RecordDonationTransition records a status change. Paid transitions also add
// to the paid volume counter.
func RecordDonationTransition(status, currency string, amountGrosze int64) {
	donationTransitionsTotal.WithLabelValues(status).Inc()
	if status == "paid" {
		donationAmountGrosze.WithLabelValues(currency, "paid").Add(float64(amountGrosze))
	}
}
