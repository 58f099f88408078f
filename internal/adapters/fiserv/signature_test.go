package fiserv

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

func sampleCheckoutRequest() CheckoutRequest {
	return CheckoutRequest{
		ChargeTotal:     decimal.RequireFromString("50"),
		OrderID:         "DON-1700000000-12345",
		FailURL:         "https://etaca.pl/platnosc/blad",
		SuccessURL:      "https://etaca.pl/platnosc/sukces",
		NotificationURL: "https://api.etaca.pl/api/v1/payments/fiserv/notify",
		StoreName:       "3300001",
		Timezone:        "Europe/Warsaw",
		TxnDateTime:     "2023:11:14-23:13:20",
	}
}

func sampleNotification() map[string]string {
	return map[string]string{
		"oid":         "DON-1700000000-12345",
		"status":      "APPROVED",
		"amount":      "50.00",
		"currency":    "985",
		"storename":   "3300001",
		"txndatetime": "2023:11:14-23:13:20",
	}
}

func TestCheckoutRequest_SignedFields_Order(t *testing.T) {
	fields := sampleCheckoutRequest().SignedFields()

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	assert.Equal(t, []string{
		"chargetotal",
		"checkoutoption",
		"currency",
		"hash_algorithm",
		"oid",
		"responseFailURL",
		"responseSuccessURL",
		"storename",
		"timezone",
		"txndatetime",
		"txntype",
	}, names)
	assert.Equal(t, "50.00", fields[0].Value)
}

func TestCheckoutRequest_SignedFields_ExcludesUnsignedFields(t *testing.T) {
	req := sampleCheckoutRequest()
	req.DonorEmail = "jan@example.pl"
	req.DonorName = "Jan Kowalski"

	for _, f := range req.SignedFields() {
		assert.NotEqual(t, FieldNotificationURL, f.Name)
		assert.NotEqual(t, FieldBillingEmail, f.Name)
		assert.NotEqual(t, FieldBillingName, f.Name)
		assert.NotEqual(t, FieldHash, f.Name)
	}
}

func TestSignOutbound_KnownVector(t *testing.T) {
	hash := SignOutbound(sampleCheckoutRequest().SignedFields(), testSecret)

	assert.Equal(t, "n7AsH84bWTWMZq57W0Zj76krcLgl7Xq5KRqQsCqFJjk=", hash)
}

func TestSignOutbound_UnaffectedByUnsignedFields(t *testing.T) {
	base := sampleCheckoutRequest()
	withDonor := sampleCheckoutRequest()
	withDonor.DonorEmail = "jan@example.pl"
	withDonor.DonorName = "Jan"
	withDonor.NotificationURL = "https://other.example/notify"

	assert.Equal(t,
		SignOutbound(base.SignedFields(), testSecret),
		SignOutbound(withDonor.SignedFields(), testSecret),
	)
}

func TestSignOutbound_AmountFormatting(t *testing.T) {
	a := sampleCheckoutRequest()
	b := sampleCheckoutRequest()
	b.ChargeTotal = decimal.RequireFromString("50.001")

	// Both render as 50.00 so the signatures agree
	assert.Equal(t, SignOutbound(a.SignedFields(), testSecret), SignOutbound(b.SignedFields(), testSecret))
}

func TestCheckoutRequest_FormFields_OptionalDonorFields(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		donorName string
		wantEmail string
		wantName  string
	}{
		{name: "both_present", email: " jan@example.pl ", donorName: "Jan", wantEmail: "jan@example.pl", wantName: "Jan"},
		{name: "blank_email_omitted", email: "   ", donorName: "Jan", wantEmail: "", wantName: "Jan"},
		{name: "blank_name_omitted", email: "jan@example.pl", donorName: "\t", wantEmail: "jan@example.pl", wantName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleCheckoutRequest()
			req.DonorEmail = tt.email
			req.DonorName = tt.donorName

			got := map[string]string{}
			for _, f := range req.FormFields("sig") {
				got[f.Name] = f.Value
			}

			assert.Equal(t, "sig", got[FieldHash])
			assert.Equal(t, req.NotificationURL, got[FieldNotificationURL])

			email, hasEmail := got[FieldBillingEmail]
			assert.Equal(t, tt.wantEmail != "", hasEmail)
			assert.Equal(t, tt.wantEmail, email)

			name, hasName := got[FieldBillingName]
			assert.Equal(t, tt.wantName != "", hasName)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestInboundSigningString(t *testing.T) {
	fields := sampleNotification()
	fields["HASH"] = "ignored"

	assert.Equal(t, "50.00985DON-1700000000-12345APPROVED33000012023:11:14-23:13:20", InboundSigningString(fields))
}

func TestVerifyInbound(t *testing.T) {
	const validHash = "s7EeNFYWHhIWNGG8Gtb06AVPEZvjtDzGzHpnhNq5zsw="

	t.Run("valid_signature", func(t *testing.T) {
		fields := sampleNotification()
		fields["hash"] = validHash

		assert.True(t, VerifyInbound(fields, ProvidedHash(fields), testSecret))
	})

	t.Run("hash_key_any_case", func(t *testing.T) {
		fields := sampleNotification()
		fields["Hash"] = validHash

		require.Equal(t, validHash, ProvidedHash(fields))
		assert.True(t, VerifyInbound(fields, ProvidedHash(fields), testSecret))
	})

	t.Run("tampered_status", func(t *testing.T) {
		fields := sampleNotification()
		fields["status"] = "DECLINED"

		assert.False(t, VerifyInbound(fields, validHash, testSecret))
	})

	t.Run("wrong_secret", func(t *testing.T) {
		assert.False(t, VerifyInbound(sampleNotification(), validHash, "other"))
	})

	t.Run("outbound_separator_not_used_inbound", func(t *testing.T) {
		fields := sampleNotification()
		pipeJoined := SignOutbound([]Field{
			{Value: "50.00"}, {Value: "985"}, {Value: "DON-1700000000-12345"},
			{Value: "APPROVED"}, {Value: "3300001"}, {Value: "2023:11:14-23:13:20"},
		}, testSecret)

		assert.False(t, VerifyInbound(fields, pipeJoined, testSecret))
	})
}

func TestProvidedHash_Missing(t *testing.T) {
	assert.Empty(t, ProvidedHash(sampleNotification()))
}
