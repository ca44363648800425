package output

import "time"

// Default limits for response shaping.
// These are tuned for typical LLM context windows and JobNimbus payload sizes.
const (
	// DefaultSummaryMaxFields is the field cap for the summary verbosity tier.
	DefaultSummaryMaxFields = 5

	// DefaultCompactMaxFields is the field cap for the compact verbosity tier.
	DefaultCompactMaxFields = 15

	// DefaultDetailedMaxFields is the field cap for the detailed verbosity tier.
	DefaultDetailedMaxFields = 50

	// DefaultWarnSizeKB is the soft warning threshold for response size.
	DefaultWarnSizeKB = 15

	// DefaultMaxResponseSizeKB is the hard threshold above which the full
	// payload is deferred to the handle store.
	DefaultMaxResponseSizeKB = 25

	// DefaultMaxRowsPerPage is the maximum number of array elements returned
	// inline in a response summary.
	DefaultMaxRowsPerPage = 20

	// DefaultMaxTextFieldLength is the per-string truncation length.
	DefaultMaxTextFieldLength = 200

	// DefaultLazyThreshold is the array length above which a nested array is
	// replaced by a lazy reference.
	DefaultLazyThreshold = 10

	// DefaultLazyPreviewCount is the number of preview items embedded in a
	// lazy array reference.
	DefaultLazyPreviewCount = 3

	// DefaultHandleTTL is the lifetime of a stored result handle.
	DefaultHandleTTL = 900 * time.Second

	// AbsoluteMaxRowsPerPage caps per-request row overrides. This prevents
	// unbounded inline result sets even when callers request higher limits.
	AbsoluteMaxRowsPerPage = 100
)

// Verbosity is one of four ordered tiers controlling how many fields of an
// object are retained.
type Verbosity string

const (
	VerbositySummary  Verbosity = "summary"
	VerbosityCompact  Verbosity = "compact"
	VerbosityDetailed Verbosity = "detailed"
	VerbosityRaw      Verbosity = "raw"
)

// ParseVerbosity maps a caller-supplied string to a Verbosity tier.
// Unknown or empty values fall back to compact, the default tier.
func ParseVerbosity(s string) Verbosity {
	switch Verbosity(s) {
	case VerbositySummary, VerbosityCompact, VerbosityDetailed, VerbosityRaw:
		return Verbosity(s)
	default:
		return VerbosityCompact
	}
}

// CoreFields is the ordered list of field names always retained first when a
// verbosity cap forces field dropping.
var CoreFields = []string{"jnid", "number", "name", "status", "status_name", "date_created", "type"}

// Config holds configuration for response shaping.
// All limits have sensible defaults that can be overridden via flags or
// environment variables on the serve command.
type Config struct {
	// SummaryMaxFields caps fields per object at the summary tier. Default: 5
	SummaryMaxFields int `json:"summaryMaxFields" yaml:"summaryMaxFields"`

	// CompactMaxFields caps fields per object at the compact tier. Default: 15
	CompactMaxFields int `json:"compactMaxFields" yaml:"compactMaxFields"`

	// DetailedMaxFields caps fields per object at the detailed tier. Default: 50
	DetailedMaxFields int `json:"detailedMaxFields" yaml:"detailedMaxFields"`

	// WarnSizeKB is the soft threshold that triggers a size warning. Default: 15
	WarnSizeKB int `json:"warnSizeKB" yaml:"warnSizeKB"`

	// MaxResponseSizeKB is the hard threshold that triggers handle storage.
	// Default: 25
	MaxResponseSizeKB int `json:"maxResponseSizeKB" yaml:"maxResponseSizeKB"`

	// MaxRowsPerPage limits array elements returned inline. Default: 20
	MaxRowsPerPage int `json:"maxRowsPerPage" yaml:"maxRowsPerPage"`

	// MaxTextFieldLength truncates string leaves beyond this length. Default: 200
	MaxTextFieldLength int `json:"maxTextFieldLength" yaml:"maxTextFieldLength"`

	// LazyThreshold is the array length above which nested arrays become lazy
	// references. Default: 10
	LazyThreshold int `json:"lazyThreshold" yaml:"lazyThreshold"`

	// LazyPreviewCount is the number of preview items in a lazy reference.
	// Default: 3
	LazyPreviewCount int `json:"lazyPreviewCount" yaml:"lazyPreviewCount"`

	// HandleTTL is the lifetime of stored result handles. Default: 15m
	HandleTTL time.Duration `json:"handleTTL" yaml:"handleTTL"`
}

// DefaultConfig returns a Config with the default limits.
func DefaultConfig() *Config {
	return &Config{
		SummaryMaxFields:   DefaultSummaryMaxFields,
		CompactMaxFields:   DefaultCompactMaxFields,
		DetailedMaxFields:  DefaultDetailedMaxFields,
		WarnSizeKB:         DefaultWarnSizeKB,
		MaxResponseSizeKB:  DefaultMaxResponseSizeKB,
		MaxRowsPerPage:     DefaultMaxRowsPerPage,
		MaxTextFieldLength: DefaultMaxTextFieldLength,
		LazyThreshold:      DefaultLazyThreshold,
		LazyPreviewCount:   DefaultLazyPreviewCount,
		HandleTTL:          DefaultHandleTTL,
	}
}

// Validate validates the configuration and applies bounds.
// It returns a validated copy with any out-of-range values replaced.
func (c *Config) Validate() *Config {
	validated := *c

	if validated.SummaryMaxFields <= 0 {
		validated.SummaryMaxFields = DefaultSummaryMaxFields
	}
	if validated.CompactMaxFields <= 0 {
		validated.CompactMaxFields = DefaultCompactMaxFields
	}
	if validated.DetailedMaxFields <= 0 {
		validated.DetailedMaxFields = DefaultDetailedMaxFields
	}
	if validated.WarnSizeKB <= 0 {
		validated.WarnSizeKB = DefaultWarnSizeKB
	}
	if validated.MaxResponseSizeKB <= 0 {
		validated.MaxResponseSizeKB = DefaultMaxResponseSizeKB
	}
	// The warn threshold must stay below the hard threshold to be meaningful.
	if validated.WarnSizeKB > validated.MaxResponseSizeKB {
		validated.WarnSizeKB = validated.MaxResponseSizeKB
	}
	if validated.MaxRowsPerPage <= 0 {
		validated.MaxRowsPerPage = DefaultMaxRowsPerPage
	}
	if validated.MaxRowsPerPage > AbsoluteMaxRowsPerPage {
		validated.MaxRowsPerPage = AbsoluteMaxRowsPerPage
	}
	if validated.MaxTextFieldLength <= 0 {
		validated.MaxTextFieldLength = DefaultMaxTextFieldLength
	}
	if validated.LazyThreshold <= 0 {
		validated.LazyThreshold = DefaultLazyThreshold
	}
	if validated.LazyPreviewCount <= 0 {
		validated.LazyPreviewCount = DefaultLazyPreviewCount
	}
	if validated.HandleTTL <= 0 {
		validated.HandleTTL = DefaultHandleTTL
	}

	return &validated
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// MaxFields returns the field cap for the given verbosity tier.
// The raw tier is unbounded and returns 0.
func (c *Config) MaxFields(v Verbosity) int {
	switch v {
	case VerbositySummary:
		return c.SummaryMaxFields
	case VerbosityDetailed:
		return c.DetailedMaxFields
	case VerbosityRaw:
		return 0
	default:
		return c.CompactMaxFields
	}
}
