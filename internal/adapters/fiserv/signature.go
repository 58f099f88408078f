package fiserv

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
)

// The gateway signs the outbound form with "|" between values and the
// notification with no separator at all. Both are fixed protocol details.
const (
	outboundSeparator = "|"
	inboundSeparator  = ""
)

// SignOutbound computes the hosted payment page hash over fields, which must
// already be in signing order (see CheckoutRequest.SignedFields)
func SignOutbound(fields []Field, secret string) string {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.Value
	}
	return computeHMAC(strings.Join(values, outboundSeparator), secret)
}

// InboundSigningString builds the message a notification is signed over: the
// hash field is dropped (any letter case), the remaining keys are sorted and
// their values concatenated
func InboundSigningString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.EqualFold(k, FieldHash) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = fields[k]
	}
	return strings.Join(values, inboundSeparator)
}

// SignInbound computes the expected notification hash
func SignInbound(fields map[string]string, secret string) string {
	return computeHMAC(InboundSigningString(fields), secret)
}

// VerifyInbound compares the provided hash with the expected notification
// hash in constant time
func VerifyInbound(fields map[string]string, providedHash, secret string) bool {
	expected := SignInbound(fields, secret)
	return hmac.Equal([]byte(expected), []byte(providedHash))
}

// ProvidedHash returns the value of the hash field, matched case-insensitively
func ProvidedHash(fields map[string]string) string {
	if v, ok := fields[FieldHash]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, FieldHash) {
			return v
		}
	}
	return ""
}

// computeHMAC computes a base64 encoded HMAC-SHA256 signature
func computeHMAC(message, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
