package donation

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	pkgerrors "github.com/kevin07696/etaca-service/pkg/errors"
	"github.com/kevin07696/etaca-service/pkg/resilience"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxRequestBody bounds the JSON body of an initiation request
const maxRequestBody = 64 << 10

// Handler serves the public donation endpoints
type Handler struct {
	service  ports.DonationService
	timeouts *resilience.TimeoutConfig
	logger   *zap.Logger
}

// NewHandler creates a new donation handler
func NewHandler(service ports.DonationService, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Register mounts the donation routes
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/donations", h.Initiate)
	mux.HandleFunc("GET /api/v1/donations/{externalRef}", h.GetStatus)
}

// InitiateRequest is the body of POST /api/v1/donations
type InitiateRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	OrganizationID string          `json:"organizationId"`
	GoalID         string          `json:"goalId,omitempty"`
	DonorEmail     string          `json:"donorEmail"`
	DonorName      string          `json:"donorName,omitempty"`
	UTMSource      string          `json:"utmSource,omitempty"`
	UTMMedium      string          `json:"utmMedium,omitempty"`
	UTMCampaign    string          `json:"utmCampaign,omitempty"`
	Consent        bool            `json:"consent"`
}

// StatusResponse is the donation view polled by the success and fail pages
type StatusResponse struct {
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	DonationID  string     `json:"donationId"`
	ExternalRef string     `json:"externalRef"`
	Status      string     `json:"status"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
}

// ErrorResponse is returned for every rejected request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Initiate handles POST /api/v1/donations
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		h.logger.Debug("Malformed donation request", zap.Error(err))
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    string(domain.ErrorCodeValidationFailed),
			Message: "request body must be a JSON object",
		})
		return
	}
	if req.OrganizationID == "" {
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    string(domain.ErrorCodeValidationFailed),
			Message: "organizationId is required",
			Field:   "organizationId",
		})
		return
	}

	ctx, cancel := h.timeouts.InitiationContext(r.Context())
	defer cancel()

	result, err := h.service.Initiate(ctx, ports.InitiateDonationRequest{
		OrganizationID: req.OrganizationID,
		GoalID:         req.GoalID,
		DonorEmail:     req.DonorEmail,
		DonorName:      req.DonorName,
		UTM: domain.UTM{
			Source:   req.UTMSource,
			Medium:   req.UTMMedium,
			Campaign: req.UTMCampaign,
		},
		Amount:  req.Amount,
		Consent: req.Consent,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, result)
}

// GetStatus handles GET /api/v1/donations/{externalRef}
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	donation, err := h.service.GetByExternalRef(ctx, r.PathValue("externalRef"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, StatusResponse{
		PaidAt:      donation.PaidAt,
		DonationID:  donation.ID,
		ExternalRef: donation.ExternalRef,
		Status:      string(donation.Status),
		Amount:      donation.Amount.StringFixed(2),
		Currency:    donation.Currency,
	})
}

// respondError maps a domain error onto an HTTP status. Unclassified errors
// become a 500 with a generic message and are logged in full.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Code:    string(domain.GetErrorCode(err)),
		Message: domain.GetErrorMessage(err),
		Field:   pkgerrors.FieldOf(err),
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Donation request failed", zap.Error(err))
		resp = ErrorResponse{
			Code:    string(domain.ErrorCodeInternalError),
			Message: domain.ErrInternalError.Message,
		}
	}
	h.respondJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsInvalidOperationError(err), domain.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
