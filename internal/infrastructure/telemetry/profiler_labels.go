package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelRole      = "role"
	ProfilingLabelOperation = "operation"
	ProfilingLabelRuleType  = "rule_type"
)

// MaxLabelValueLength truncates label values.
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiles. Pyroscope stores one
// series per label combination.
var HighCardinalityLabels = map[string]bool{
	"user_id":     true,
	"request_id":  true,
	"trace_id":    true,
	"span_id":     true,
	"doctor_id":   true,
	"hospital_id": true,
}

// WithProfilingLabels runs fn with pprof labels that Pyroscope attaches to
// the samples taken inside it.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels returns route labels for a request.
func HTTPRequestLabels(route, method, role string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:  route,
		ProfilingLabelMethod: method,
		ProfilingLabelRole:   role,
	}
}

// sanitizeLabels flattens labels into sorted key/value pairs, dropping empty
// and high-cardinality entries.
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		case c == ' ' || c == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
