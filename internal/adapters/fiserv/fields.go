package fiserv

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Hosted payment page literals
const (
	CheckoutOptionCombinedPage = "combinedpage"
	CurrencyCodePLN            = "985"
	HashAlgorithmHMACSHA256    = "HMACSHA256"
	TxnTypeSale                = "sale"
	DefaultTimezone            = "Europe/Warsaw"
)

// NotificationPath is where the gateway posts server-to-server results
const NotificationPath = "/api/v1/payments/fiserv/notify"

// Form field names
const (
	FieldChargeTotal        = "chargetotal"
	FieldCheckoutOption     = "checkoutoption"
	FieldCurrency           = "currency"
	FieldHashAlgorithm      = "hash_algorithm"
	FieldOrderID            = "oid"
	FieldResponseFailURL    = "responseFailURL"
	FieldResponseSuccessURL = "responseSuccessURL"
	FieldStoreName          = "storename"
	FieldTimezone           = "timezone"
	FieldTxnDateTime        = "txndatetime"
	FieldTxnType            = "txntype"
	FieldNotificationURL    = "transactionNotificationURL"
	FieldHash               = "hash"
	FieldBillingEmail       = "bmail"
	FieldBillingName        = "bname"
	FieldStatus             = "status"
	FieldApprovalCode       = "approval_code"
)

// Field is a single named form value. Order is significant wherever a slice
// of fields is rendered or signed.
type Field struct {
	Name  string
	Value string
}

// CheckoutRequest holds every value the hosted payment page needs for a sale.
// All fields except NotificationURL, DonorEmail and DonorName are signed.
type CheckoutRequest struct {
	ChargeTotal     decimal.Decimal
	OrderID         string
	FailURL         string
	SuccessURL      string
	NotificationURL string
	StoreName       string
	Timezone        string
	TxnDateTime     string
	DonorEmail      string
	DonorName       string
}

// SignedFields returns the signed field set sorted by name in byte order
func (r CheckoutRequest) SignedFields() []Field {
	timezone := r.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}
	fields := []Field{
		{Name: FieldChargeTotal, Value: r.ChargeTotal.StringFixed(2)},
		{Name: FieldCheckoutOption, Value: CheckoutOptionCombinedPage},
		{Name: FieldCurrency, Value: CurrencyCodePLN},
		{Name: FieldHashAlgorithm, Value: HashAlgorithmHMACSHA256},
		{Name: FieldOrderID, Value: r.OrderID},
		{Name: FieldResponseFailURL, Value: r.FailURL},
		{Name: FieldResponseSuccessURL, Value: r.SuccessURL},
		{Name: FieldStoreName, Value: r.StoreName},
		{Name: FieldTimezone, Value: timezone},
		{Name: FieldTxnDateTime, Value: r.TxnDateTime},
		{Name: FieldTxnType, Value: TxnTypeSale},
	}
	sortFields(fields)
	return fields
}

// FormFields returns the complete posted field set: the signed fields, the
// unsigned notification URL, the signature, and the optional donor fields
// when they are not blank.
func (r CheckoutRequest) FormFields(hash string) []Field {
	fields := r.SignedFields()
	fields = append(fields,
		Field{Name: FieldNotificationURL, Value: r.NotificationURL},
		Field{Name: FieldHash, Value: hash},
	)
	if email := strings.TrimSpace(r.DonorEmail); email != "" {
		fields = append(fields, Field{Name: FieldBillingEmail, Value: email})
	}
	if name := strings.TrimSpace(r.DonorName); name != "" {
		fields = append(fields, Field{Name: FieldBillingName, Value: name})
	}
	return fields
}

// sortFields orders fields by name using byte-wise comparison so uppercase
// letters sort before lowercase
func sortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
}
