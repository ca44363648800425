package output

import (
	"encoding/json"
	"fmt"
)

// ThresholdKind selects which configured size threshold to compare against.
type ThresholdKind string

const (
	// ThresholdWarn is the soft warning threshold.
	ThresholdWarn ThresholdKind = "warn"
	// ThresholdHard is the hard threshold that triggers handle storage.
	ThresholdHard ThresholdKind = "hard"
)

// CalculateSize returns the serialized UTF-8 byte size of any JSON value.
// It returns 0 when the value cannot be serialized (channels, cycles through
// pointers, ...) rather than propagating the error; the pipeline treats an
// unmeasurable value as zero-size.
func CalculateSize(data any) int {
	b, err := json.Marshal(data)
	if err != nil {
		return 0
	}
	return len(b)
}

// ExceedsThreshold reports whether a byte count exceeds the configured
// threshold of the given kind.
func (c *Config) ExceedsThreshold(bytes int, kind ThresholdKind) bool {
	switch kind {
	case ThresholdWarn:
		return bytes > c.WarnSizeKB*1024
	case ThresholdHard:
		return bytes > c.MaxResponseSizeKB*1024
	default:
		return false
	}
}

// FormatSize renders a byte count as a human-readable B/KB/MB string.
func FormatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%dB", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
	}
}
