package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint computes a stable, pure hash over the normalized UTF-8 bytes
// of text combined with the boolean option flags. Whitespace is trimmed
// before hashing (testable property 3), so the same (content, options)
// pair always maps to the same key regardless of incidental surrounding
// whitespace.
func Fingerprint(text string, includeWords, includeSentences bool) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(text)))
	h.Write([]byte{boolByte(includeWords), boolByte(includeSentences)})
	return hex.EncodeToString(h.Sum(nil))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ClassifySizeWithThresholds buckets length using caller-supplied
// thresholds, so deployments can tune small/large/background via config.
func ClassifySizeWithThresholds(length, small, large, huge int) SizeClass {
	switch {
	case length < small:
		return SizeSmall
	case length > huge:
		return SizeHuge
	case length > large:
		return SizeLarge
	default:
		return SizeMedium
	}
}

// NewText builds an immutable Text from raw input and the two analysis
// option flags, computing its fingerprint and size class.
func NewText(raw string, includeWords, includeSentences bool, small, large, huge int) Text {
	trimmed := strings.TrimSpace(raw)
	return Text{
		Raw:         raw,
		Fingerprint: Fingerprint(raw, includeWords, includeSentences),
		Length:      len([]rune(trimmed)),
		Class:       ClassifySizeWithThresholds(len([]rune(trimmed)), small, large, huge),
	}
}
