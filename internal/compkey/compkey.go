// Package compkey provides canonical encodings for composite record identifiers.
package compkey

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Canonical renders a composite identifier as a stable string. Field order is
// normalized by sorting, so two identifiers carrying the same field→value
// pairs always encode identically regardless of insertion order.
func Canonical(id map[string]string) string {
	fields := make([]string, 0, len(id))
	for field := range id {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(id[field])
	}
	return b.String()
}

// Digest computes a collision-resistant partition key for a composite
// identifier. Safe as a DynamoDB partition key or SQL primary key no matter
// which characters appear in identifier values.
func Digest(id map[string]string) string {
	h := sha256.Sum256([]byte(Canonical(id)))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}
