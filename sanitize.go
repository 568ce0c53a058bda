package viperlog

import "strings"

// Sanitizer redacts sensitive metadata before an event is stored and
// indexed. Sanitization policy is owned by the host application; the
// library only ships a key-masking default.
type Sanitizer interface {
	Sanitize(metadata map[string]string) map[string]string
}

const maskedValue = "***"

type fieldMasker struct {
	keys map[string]struct{}
}

// MaskSanitizer returns a Sanitizer that replaces the values of the given
// metadata keys (case-insensitive) with "***".
func MaskSanitizer(keys ...string) Sanitizer {
	m := fieldMasker{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		m.keys[strings.ToLower(k)] = struct{}{}
	}
	return m
}

func (m fieldMasker) Sanitize(metadata map[string]string) map[string]string {
	if len(metadata) == 0 || len(m.keys) == 0 {
		return metadata
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if _, sensitive := m.keys[strings.ToLower(k)]; sensitive {
			out[k] = maskedValue
		} else {
			out[k] = v
		}
	}
	return out
}

type noopSanitizer struct{}

func (noopSanitizer) Sanitize(metadata map[string]string) map[string]string {
	return metadata
}
