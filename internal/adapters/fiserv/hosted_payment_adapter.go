package fiserv

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/pkg/timeutil"
	"go.uber.org/zap"
)

// Gateway endpoints for the Connect hosted payment page
const (
	ProductionGatewayURL = "https://www.ipg-online.com/connect/gateway/processing"
	TestGatewayURL       = "https://test.ipg-online.com/connect/gateway/processing"
)

// Config contains configuration for the hosted payment page adapter
type Config struct {
	// Form action URL
	GatewayURL string

	// IANA zone the gateway evaluates txndatetime in
	Timezone string
}

// DefaultConfig returns the gateway configuration for an environment
func DefaultConfig(environment string) *Config {
	gatewayURL := ProductionGatewayURL
	if environment != "production" {
		gatewayURL = TestGatewayURL
	}
	return &Config{
		GatewayURL: gatewayURL,
		Timezone:   DefaultTimezone,
	}
}

var checkoutTemplate = template.Must(template.New("checkout").Parse(checkoutFormHTML))

// HostedPaymentAdapter implements ports.HostedPaymentGateway for Fiserv IPG Connect
type HostedPaymentAdapter struct {
	config   *Config
	location *time.Location
	now      timeutil.Clock
	logger   *zap.Logger
}

// NewHostedPaymentAdapter creates a new adapter. The configured timezone must
// resolve, a wrong zone makes the gateway reject every form as clock skew.
func NewHostedPaymentAdapter(config *Config, logger *zap.Logger) (*HostedPaymentAdapter, error) {
	if config.GatewayURL == "" {
		return nil, fmt.Errorf("fiserv gateway URL is required")
	}
	if config.Timezone == "" {
		config.Timezone = DefaultTimezone
	}
	loc, err := timeutil.LoadZone(config.Timezone)
	if err != nil {
		return nil, err
	}
	return &HostedPaymentAdapter{
		config:   config,
		location: loc,
		now:      timeutil.Now,
		logger:   logger,
	}, nil
}

// WithClock overrides the clock used for txndatetime
func (a *HostedPaymentAdapter) WithClock(clock timeutil.Clock) *HostedPaymentAdapter {
	a.now = clock
	return a
}

// BuildCheckoutForm signs the sale and renders the redirect document
func (a *HostedPaymentAdapter) BuildCheckoutForm(creds domain.PaymentCredentials, params ports.CheckoutParams) (*ports.CheckoutForm, error) {
	if creds.StoreID == "" || creds.Secret == "" {
		return nil, domain.ErrOrganizationCredentialsMissing
	}
	if params.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	req := CheckoutRequest{
		ChargeTotal:     params.Amount,
		OrderID:         params.OrderID,
		FailURL:         params.FailURL,
		SuccessURL:      params.SuccessURL,
		NotificationURL: params.NotificationURL,
		StoreName:       creds.StoreID,
		Timezone:        a.config.Timezone,
		TxnDateTime:     timeutil.FormatGatewayDateTime(a.now(), a.location),
		DonorEmail:      params.DonorEmail,
		DonorName:       params.DonorName,
	}

	hash := SignOutbound(req.SignedFields(), creds.Secret)
	fields := req.FormFields(hash)

	form := &ports.CheckoutForm{
		Action: a.config.GatewayURL,
		Fields: make([]ports.FormField, len(fields)),
	}
	for i, f := range fields {
		form.Fields[i] = ports.FormField{Name: f.Name, Value: f.Value}
	}

	var buf bytes.Buffer
	if err := checkoutTemplate.Execute(&buf, form); err != nil {
		return nil, fmt.Errorf("render checkout form: %w", err)
	}
	form.HTML = buf.String()

	a.logger.Debug("Built hosted payment form",
		zap.String("oid", req.OrderID),
		zap.String("storename", req.StoreName),
		zap.String("txndatetime", req.TxnDateTime),
	)
	return form, nil
}

// VerifyNotification checks the notification hash. A missing hash or secret
// yields a skipped verdict; callers decide whether that is acceptable.
func (a *HostedPaymentAdapter) VerifyNotification(fields map[string]string, creds domain.PaymentCredentials) ports.SignatureVerdict {
	provided := strings.TrimSpace(ProvidedHash(fields))
	switch {
	case provided == "":
		return ports.SignatureSkippedNoHash
	case !creds.HasSecret():
		return ports.SignatureSkippedNoSecret
	}

	if !VerifyInbound(fields, provided, creds.Secret) {
		a.logger.Warn("Notification signature mismatch",
			zap.String("oid", fields[FieldOrderID]),
			zap.String("storename", fields[FieldStoreName]),
		)
		return ports.SignatureMismatch
	}
	return ports.SignatureValid
}

// Auto-submitting redirect document. Field values are attribute-escaped by
// html/template.
const checkoutFormHTML = `<!DOCTYPE html>
<html lang="pl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Przekierowanie do płatności</title>
</head>
<body>
    <form id="fiserv-hpp" method="post" action="{{.Action}}">
{{- range .Fields}}
        <input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
        <noscript><button type="submit">Przejdź do płatności</button></noscript>
    </form>
    <script>document.getElementById("fiserv-hpp").submit();</script>
</body>
</html>
`
