package webhook

import (
	"strings"

	"github.com/kevin07696/etaca-service/internal/domain"
)

// MapGatewayStatus translates the notification status. ok is false for
// statuses that do not move the donation.
func MapGatewayStatus(status string) (target domain.DonationStatus, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "APPROVED", "SUCCESS":
		return domain.DonationStatusPaid, true
	case "DECLINED", "FAILED":
		return domain.DonationStatusFailed, true
	case "CANCELLED":
		return domain.DonationStatusCancelled, true
	default:
		return "", false
	}
}
