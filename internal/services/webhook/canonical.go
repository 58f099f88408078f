package webhook

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"
)

// CanonicalPayload renders the notification as compact JSON with keys in
// ascending order and no HTML escaping, plus the lowercase hex SHA-256 of
// that rendering. Byte-identical field sets always hash the same, and
// byte-distinct ones never do.
//
// A field set holding invalid UTF-8 is rendered as an array of base64
// [key, value] pairs sorted by key instead. The object form would replace
// every invalid byte with U+FFFD. An object never renders as an array, so
// the two forms cannot collide.
func CanonicalPayload(fields map[string]string) (raw string, hash string, err error) {
	if fields == nil {
		fields = map[string]string{}
	}

	var doc any = fields
	if !validUTF8Fields(fields) {
		doc = byteExactPairs(fields)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json writes map keys sorted
	if err := enc.Encode(doc); err != nil {
		return "", "", fmt.Errorf("canonicalize payload: %w", err)
	}

	canonical := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	sum := sha256.Sum256(canonical)
	return string(canonical), hex.EncodeToString(sum[:]), nil
}

func validUTF8Fields(fields map[string]string) bool {
	for k, v := range fields {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

func byteExactPairs(fields map[string]string) [][2]string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{
			base64.StdEncoding.EncodeToString([]byte(k)),
			base64.StdEncoding.EncodeToString([]byte(fields[k])),
		})
	}
	return pairs
}
