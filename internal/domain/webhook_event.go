package domain

import "time"

// WebhookProviderFiserv identifies notifications sent by the Fiserv gateway
const WebhookProviderFiserv = "Fiserv"

// WebhookEvent is a ledger row for a received gateway notification. Rows are
// unique on PayloadHash, which makes the ledger the idempotency guard for
// redelivered notifications.
type WebhookEvent struct {
	ReceivedAt  time.Time `json:"received_at"`
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ExternalRef string    `json:"external_ref"`
	PayloadHash string    `json:"payload_hash"`
	RawPayload  string    `json:"raw_payload"`
	Status      string    `json:"status"`
	Processed   bool      `json:"processed"`
}
