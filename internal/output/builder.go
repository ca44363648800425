package output

import (
	"context"
	"log/slog"
	"time"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/logging"
)

// Envelope status values.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Envelope is the uniform wrapper returned to every caller.
// Status is "partial" if and only if ResultHandle is present; "error" if and
// only if Summary is nil and Error is set.
type Envelope struct {
	Status       string    `json:"status"`
	Summary      any       `json:"summary"`
	ResultHandle string    `json:"result_handle,omitempty"`
	PageInfo     *PageInfo `json:"page_info,omitempty"`
	Error        string    `json:"error,omitempty"`
	Metadata     Metadata  `json:"metadata"`
}

// PageInfo describes inline row slicing applied to an array result.
type PageInfo struct {
	Total    int  `json:"total"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"has_more"`
}

// Metadata carries response shaping details alongside every envelope.
type Metadata struct {
	Verbosity    string `json:"verbosity"`
	SizeBytes    int    `json:"size_bytes"`
	FieldCount   int    `json:"field_count"`
	RowCount     int    `json:"row_count"`
	CacheHit     *bool  `json:"cache_hit,omitempty"`
	ExpiresInSec int    `json:"expires_in_sec,omitempty"`
	ToolName     string `json:"tool_name"`
	Timestamp    string `json:"timestamp"`
}

// BuildOptions configures one Build call.
type BuildOptions struct {
	// Fields applies field selection before verbosity limiting when non-empty.
	Fields []string

	// Verbosity selects the field-cap tier. Empty means compact.
	Verbosity Verbosity

	// MaxFields overrides the tier's cap when positive.
	MaxFields int

	// Entity enables handle storage for over-threshold results. Without an
	// entity name the full data is never deferred.
	Entity string

	// ToolName and Instance are recorded in metadata and stored results.
	ToolName string
	Instance string

	// CacheHit optionally flags that the source data came from a cache.
	CacheHit *bool
}

// Builder orchestrates the response-shaping pipeline: field selection, then
// verbosity limiting, then string truncation, then the size-based decision
// between inline and handle delivery.
type Builder struct {
	cfg    *Config
	store  *handles.Store
	logger *slog.Logger

	// now is injectable for timestamp tests.
	now func() time.Time
}

// NewBuilder creates a Builder. The store may be nil, in which case
// oversized results are returned inline-truncated without a handle.
func NewBuilder(cfg *Config, store *handles.Store, logger *slog.Logger) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:    cfg.Validate(),
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the builder's validated configuration.
func (b *Builder) Config() *Config {
	return b.cfg
}

// Build runs the pipeline over data and assembles the response envelope.
//
// Stages run in strict order: selection, verbosity, truncation, row slicing,
// sizing, storage decision. A failed handle store write degrades to an "ok"
// envelope with the truncated summary; it never fails the request.
func (b *Builder) Build(ctx context.Context, data any, opts BuildOptions) *Envelope {
	verbosity := opts.Verbosity
	if verbosity == "" {
		verbosity = VerbosityCompact
	}

	processed := data
	if len(opts.Fields) > 0 {
		processed = SelectFields(processed, opts.Fields)
	}

	maxFields := opts.MaxFields
	if maxFields <= 0 {
		maxFields = b.cfg.MaxFields(verbosity)
	}
	processed = ApplyVerbosity(processed, verbosity, maxFields)
	processed = TruncateStrings(processed, b.cfg.MaxTextFieldLength)

	summary, rowWarning := SliceRows(processed, b.cfg.MaxRowsPerPage)

	fullSize := CalculateSize(processed)
	summarySize := CalculateSize(summary)

	if b.cfg.ExceedsThreshold(fullSize, ThresholdWarn) && !b.cfg.ExceedsThreshold(fullSize, ThresholdHard) {
		b.logger.Warn("response size above warning threshold",
			logging.Tool(opts.ToolName),
			logging.SizeBytes(fullSize))
	}

	handle := ""
	if b.cfg.ExceedsThreshold(fullSize, ThresholdHard) && opts.Entity != "" && b.store != nil {
		h, err := b.store.Store(ctx, opts.Entity, processed, opts.ToolName, string(verbosity), opts.Instance, b.cfg.HandleTTL)
		if err != nil {
			b.logger.Warn("handle store write failed, returning summary only",
				logging.Tool(opts.ToolName),
				logging.Entity(opts.Entity),
				logging.SanitizedErr(err))
		} else {
			handle = h
		}
	}

	envelope := &Envelope{
		Status:       StatusOK,
		Summary:      summary,
		ResultHandle: handle,
		Metadata: Metadata{
			Verbosity:  string(verbosity),
			SizeBytes:  summarySize,
			FieldCount: fieldCount(summary),
			RowCount:   rowCount(summary),
			CacheHit:   opts.CacheHit,
			ToolName:   opts.ToolName,
			Timestamp:  b.now().UTC().Format(time.RFC3339),
		},
	}
	if handle != "" {
		envelope.Status = StatusPartial
		envelope.Metadata.ExpiresInSec = int(b.cfg.HandleTTL / time.Second)
	}
	if rowWarning != nil {
		envelope.PageInfo = &PageInfo{
			Total:    rowWarning.Total,
			Returned: rowWarning.Shown,
			HasMore:  true,
		}
	}

	return envelope
}

// BuildError produces a status "error" envelope. It never touches the
// handle store.
func (b *Builder) BuildError(err error, toolName string, verbosity Verbosity) *Envelope {
	if verbosity == "" {
		verbosity = VerbosityCompact
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Envelope{
		Status:  StatusError,
		Summary: nil,
		Error:   msg,
		Metadata: Metadata{
			Verbosity: string(verbosity),
			ToolName:  toolName,
			Timestamp: b.now().UTC().Format(time.RFC3339),
		},
	}
}

// NeedsHandle reports whether a JSON value's serialized size exceeds the
// hard threshold. Usable independently of the full pipeline.
func (b *Builder) NeedsHandle(data any) bool {
	return b.NeedsHandleBytes(CalculateSize(data))
}

// NeedsHandleBytes is NeedsHandle for an already-measured byte count.
func (b *Builder) NeedsHandleBytes(sizeBytes int) bool {
	return b.cfg.ExceedsThreshold(sizeBytes, ThresholdHard)
}

// fieldCount reports the key count of an object result, or of the first
// element of an array result.
func fieldCount(data any) int {
	switch v := data.(type) {
	case map[string]any:
		return len(v)
	case []any:
		if len(v) == 0 {
			return 0
		}
		if first, ok := v[0].(map[string]any); ok {
			return len(first)
		}
		return 0
	default:
		return 0
	}
}

// rowCount reports the number of rows returned inline: array length for
// arrays, 1 for a single object or scalar, 0 for nil.
func rowCount(data any) int {
	if data == nil {
		return 0
	}
	if arr, ok := data.([]any); ok {
		return len(arr)
	}
	return 1
}
