package domain

import "encoding/json"

// Metadata is a free-form record attached to an indexed document.
type Metadata map[string]any

// Number returns the numeric value stored under key.
// Missing keys and non-numeric values return (0, false).
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String returns the string value stored under key, or ("", false).
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Strings returns the string-slice value stored under key. Values decoded from
// JSON arrive as []any, so both representations are accepted. Missing keys and
// non-slice values return nil.
func (m Metadata) Strings(key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Document is a single retrieval result. Score is 1/(1+d) for squared L2
// distance d, so it decreases monotonically with distance and is comparable
// only within one query.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}
