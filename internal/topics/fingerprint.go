package topics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Fingerprint derives the cross-source document identity from the
// normalized title and host. Two sources syndicating the same paper on
// different hosts keep separate fingerprints; the same paper re-observed on
// one host always maps to the same fingerprint.
func Fingerprint(title, host string) string {
	sum := sha256.Sum256([]byte(normalizeTitle(title) + "|" + strings.ToLower(host)))
	return hex.EncodeToString(sum[:])
}

// normalizeTitle lowercases, strips punctuation, and collapses whitespace
// so cosmetic title differences do not split a document's identity.
func normalizeTitle(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
