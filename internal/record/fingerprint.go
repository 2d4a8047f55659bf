package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// AttachmentsKey is the reserved context key holding attachment references.
// Its value is passed through normalization verbatim.
const AttachmentsKey = "_attachments"

// NormalizeContext returns a copy of the context containing only values that
// are safe to persist and hash: scalars, nil, and nested maps of the same.
// Anything else (live objects, channels, funcs, slices) is dropped so the
// fingerprint stays deterministic across processes.
func NormalizeContext(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k == AttachmentsKey {
			out[k] = v
			continue
		}
		if nv, ok := normalizeValue(v); ok {
			out[k] = nv
		}
	}
	return out
}

func normalizeValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return val, true
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, inner := range val {
			if nv, ok := normalizeValue(inner); ok {
				nested[k] = nv
			}
		}
		return nested, true
	default:
		return nil, false
	}
}

// Fingerprint computes the idempotency fingerprint for a logical message.
// It is a pure function of (template, recipient, normalized context):
// identical inputs always hash identically regardless of map insertion
// order, because encoding/json emits map keys sorted.
func Fingerprint(template, recipient string, normalized map[string]any) string {
	payload, err := json.Marshal(normalized)
	if err != nil {
		// Normalization guarantees marshalable values; an error here means a
		// caller bypassed NormalizeContext. Hash what we can identify.
		payload = []byte("{}")
	}

	h := sha256.New()
	h.Write([]byte(template))
	h.Write([]byte{0})
	h.Write([]byte(recipient))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
