package fiserv

import (
	"strings"
	"testing"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupAdapter(t *testing.T) *HostedPaymentAdapter {
	t.Helper()
	adapter, err := NewHostedPaymentAdapter(DefaultConfig("sandbox"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return adapter.WithClock(func() time.Time { return time.Unix(1700000000, 0).UTC() })
}

func sampleParams() ports.CheckoutParams {
	return ports.CheckoutParams{
		Amount:          decimal.RequireFromString("50.00"),
		OrderID:         "DON-1700000000-12345",
		SuccessURL:      "https://etaca.pl/platnosc/sukces",
		FailURL:         "https://etaca.pl/platnosc/blad",
		NotificationURL: "https://api.etaca.pl/api/v1/payments/fiserv/notify",
		DonorEmail:      "jan@example.pl",
		DonorName:       "Jan <b>Kowalski</b>",
	}
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, ProductionGatewayURL, DefaultConfig("production").GatewayURL)
	assert.Equal(t, TestGatewayURL, DefaultConfig("sandbox").GatewayURL)
	assert.Equal(t, DefaultTimezone, DefaultConfig("production").Timezone)
}

func TestNewHostedPaymentAdapter_InvalidTimezone(t *testing.T) {
	_, err := NewHostedPaymentAdapter(&Config{GatewayURL: TestGatewayURL, Timezone: "Nowhere/Nothing"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestBuildCheckoutForm_Success(t *testing.T) {
	adapter := setupAdapter(t)
	creds := domain.PaymentCredentials{StoreID: "3300001", Secret: testSecret}

	form, err := adapter.BuildCheckoutForm(creds, sampleParams())
	require.NoError(t, err)

	assert.Equal(t, TestGatewayURL, form.Action)
	// 1700000000 is 22:13:20 UTC, 23:13:20 in Warsaw winter time
	assert.Equal(t, "2023:11:14-23:13:20", form.Value(FieldTxnDateTime))
	assert.Equal(t, "3300001", form.Value(FieldStoreName))
	assert.Equal(t, "Europe/Warsaw", form.Value(FieldTimezone))
	assert.Equal(t, "sale", form.Value(FieldTxnType))
	assert.Equal(t, "985", form.Value(FieldCurrency))
	assert.Equal(t, "n7AsH84bWTWMZq57W0Zj76krcLgl7Xq5KRqQsCqFJjk=", form.Value(FieldHash))
	assert.Equal(t, "jan@example.pl", form.Value(FieldBillingEmail))

	assert.Contains(t, form.HTML, `action="https://test.ipg-online.com/connect/gateway/processing"`)
	assert.Contains(t, form.HTML, `name="hash" value="n7AsH84bWTWMZq57W0Zj76krcLgl7Xq5KRqQsCqFJjk="`)
	assert.Contains(t, form.HTML, `.submit()`)
	assert.NotContains(t, form.HTML, "<b>Kowalski</b>")
	assert.Equal(t, len(form.Fields), strings.Count(form.HTML, `type="hidden"`))
}

func TestBuildCheckoutForm_MissingCredentials(t *testing.T) {
	adapter := setupAdapter(t)

	_, err := adapter.BuildCheckoutForm(domain.PaymentCredentials{StoreID: "3300001"}, sampleParams())

	assert.True(t, domain.IsConfigurationError(err))
}

func TestVerifyNotification(t *testing.T) {
	adapter := setupAdapter(t)
	creds := domain.PaymentCredentials{StoreID: "3300001", Secret: testSecret}

	tests := []struct {
		name   string
		hash   string
		creds  domain.PaymentCredentials
		expect ports.SignatureVerdict
	}{
		{name: "valid", hash: "s7EeNFYWHhIWNGG8Gtb06AVPEZvjtDzGzHpnhNq5zsw=", creds: creds, expect: ports.SignatureValid},
		{name: "mismatch", hash: "AAAA", creds: creds, expect: ports.SignatureMismatch},
		{name: "no_hash", hash: "", creds: creds, expect: ports.SignatureSkippedNoHash},
		{name: "no_secret", hash: "AAAA", creds: domain.PaymentCredentials{StoreID: "3300001"}, expect: ports.SignatureSkippedNoSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := sampleNotification()
			if tt.hash != "" {
				fields["hash"] = tt.hash
			}

			verdict := adapter.VerifyNotification(fields, tt.creds)

			assert.Equal(t, tt.expect, verdict)
			assert.Equal(t, tt.expect == ports.SignatureSkippedNoHash || tt.expect == ports.SignatureSkippedNoSecret, verdict.Skipped())
		})
	}
}
