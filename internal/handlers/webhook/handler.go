package webhook

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kevin07696/etaca-service/internal/adapters/fiserv"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	"github.com/kevin07696/etaca-service/pkg/resilience"
	"github.com/kevin07696/etaca-service/pkg/shutdown"
	"go.uber.org/zap"
)

// maxNotificationBody bounds the form-encoded notification body
const maxNotificationBody = 1 << 20

// Handler receives server-to-server payment notifications from Fiserv.
//
// The gateway retries anything that is not a 200, and retries carry the same
// payload, so every outcome (including rejections and internal failures) is
// acknowledged with 200 OK. Idempotency is handled by the processor.
type Handler struct {
	processor ports.WebhookProcessor
	inflight  *shutdown.InFlightTracker
	timeouts  *resilience.TimeoutConfig
	logger    *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(
	processor ports.WebhookProcessor,
	inflight *shutdown.InFlightTracker,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		processor: processor,
		inflight:  inflight,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// Register mounts the notification route
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+fiserv.NotificationPath, h.Notify)
}

// Notify handles POST /api/v1/payments/fiserv/notify
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	defer h.acknowledge(w)

	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBody)
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Unreadable notification body", zap.Error(err))
		return
	}
	fields := flatten(r.PostForm)

	// The ledger transaction must not be rolled back because the gateway hung up.
	ctx := context.WithoutCancel(r.Context())
	process := func(ctx context.Context) { h.process(ctx, fields) }
	if !h.inflight.RunWithContext(ctx, process) {
		h.logger.Warn("Notification received during shutdown, processing untracked",
			zap.String("external_ref", fields["oid"]),
		)
		process(ctx)
	}
}

// process runs the processor and absorbs its error. Panics are recovered
// here so that the tracker is released and the gateway still gets its 200.
func (h *Handler) process(ctx context.Context, fields map[string]string) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Panic while processing notification",
				zap.String("external_ref", fields["oid"]),
				zap.String("panic", fmt.Sprint(rec)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	ctx, cancel := h.timeouts.WebhookContext(ctx)
	defer cancel()

	result, err := h.processor.Process(ctx, fields)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeWebhookSignatureMismatch) {
			h.logger.Warn("Notification signature rejected",
				zap.String("external_ref", fields["oid"]),
			)
			return
		}
		h.logger.Error("Notification processing failed",
			zap.String("external_ref", fields["oid"]),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("Notification processed",
		zap.String("external_ref", result.ExternalRef),
		zap.String("outcome", string(result.Outcome)),
		zap.Bool("handled", result.Handled),
	)
}

func (h *Handler) acknowledge(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		h.logger.Error("Panic in notification handler", zap.String("panic", fmt.Sprint(rec)))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// flatten keeps the first value of every form key
func flatten(values map[string][]string) map[string]string {
	fields := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}
