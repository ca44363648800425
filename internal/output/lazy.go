package output

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/logging"
)

// LazyArrayType is the discriminator value carried by every lazy reference.
const LazyArrayType = "lazy_array"

// LazyArrayReference is a compact substitute for an array field too large to
// inline: a count, a small preview, a load URL and (best effort) a handle to
// the full data.
type LazyArrayReference struct {
	Type             string   `json:"_type"`
	Entity           string   `json:"entity"`
	ParentID         string   `json:"parent_id"`
	Count            int      `json:"count"`
	Summary          []any    `json:"summary"`
	SummaryVerbosity string   `json:"summary_verbosity"`
	LoadURL          string   `json:"load_url"`
	Handle           string   `json:"handle,omitempty"`
	FieldsAvailable  []string `json:"fields_available"`
	EstimatedSizeKB  float64  `json:"estimated_size_kb"`
}

// entityFieldPresets lists the preview field names per known entity type,
// keyed by verbosity tier. Unknown entity types fall back to unmodified
// preview items.
var entityFieldPresets = map[string]map[Verbosity][]string{
	"estimate_items": {
		VerbositySummary:  {"jnid", "name", "quantity", "price"},
		VerbosityCompact:  {"jnid", "name", "description", "quantity", "price", "uom", "item_type"},
		VerbosityDetailed: {"jnid", "name", "description", "quantity", "price", "cost", "uom", "item_type", "category", "color", "sku", "photos"},
	},
	"invoice_items": {
		VerbositySummary:  {"jnid", "name", "quantity", "price"},
		VerbosityCompact:  {"jnid", "name", "description", "quantity", "price", "uom", "item_type"},
		VerbosityDetailed: {"jnid", "name", "description", "quantity", "price", "cost", "uom", "item_type", "category", "sku"},
	},
	"invoice_payments": {
		VerbositySummary:  {"jnid", "amount", "date_payment", "method"},
		VerbosityCompact:  {"jnid", "amount", "date_payment", "method", "reference", "status"},
		VerbosityDetailed: {"jnid", "amount", "date_payment", "method", "reference", "status", "memo", "date_created", "created_by_name"},
	},
	"job_activities": {
		VerbositySummary:  {"jnid", "type", "date_created", "note"},
		VerbosityCompact:  {"jnid", "type", "date_created", "note", "created_by_name", "record_type_name"},
		VerbosityDetailed: {"jnid", "type", "date_created", "note", "created_by_name", "record_type_name", "primary", "location", "is_status_change"},
	},
}

// parentPrefixEntities maps a parent-id prefix to the entity family used
// when naming lazy references discovered during recursive processing.
var parentPrefixEntities = []struct {
	prefix string
	entity string
}{
	{"est", "estimate"},
	{"inv", "invoice"},
	{"job", "job"},
	{"con", "contact"},
}

// LazyReferencer replaces oversized array fields with lazy references,
// deferring the full arrays to the handle store.
type LazyReferencer struct {
	store  *handles.Store
	cfg    *Config
	logger *slog.Logger
}

// NewLazyReferencer creates a referencer over the given store and config.
func NewLazyReferencer(store *handles.Store, cfg *Config, logger *slog.Logger) *LazyReferencer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LazyReferencer{
		store:  store,
		cfg:    cfg.Validate(),
		logger: logger,
	}
}

// ReferenceOptions adjusts a single CreateReference call.
type ReferenceOptions struct {
	// SummaryVerbosity selects the preset field list for preview items.
	// Defaults to summary.
	SummaryVerbosity Verbosity
	// Instance scopes the stored full array. Required for handle creation.
	Instance string
	// ToolName is recorded in the stored result's metadata.
	ToolName string
}

// CreateReference replaces items with a LazyArrayReference when the array
// exceeds the configured threshold; smaller arrays are returned unchanged.
//
// The full array is stored raw in the handle store. A store failure, or a
// referencer built without a store, degrades to a summary-only reference
// (logged for failures, not fatal): the preview then is the best available
// fallback for full-array reconstruction.
func (r *LazyReferencer) CreateReference(ctx context.Context, entity, parentID string, items []any, opts ReferenceOptions) any {
	if len(items) <= r.cfg.LazyThreshold {
		return items
	}

	summaryVerbosity := opts.SummaryVerbosity
	if summaryVerbosity == "" {
		summaryVerbosity = VerbositySummary
	}

	previewCount := r.cfg.LazyPreviewCount
	if previewCount > len(items) {
		previewCount = len(items)
	}

	presetFields := presetFor(entity, summaryVerbosity)
	summary := make([]any, 0, previewCount)
	for _, item := range items[:previewCount] {
		if len(presetFields) == 0 {
			summary = append(summary, item)
			continue
		}
		summary = append(summary, SelectFields(item, presetFields))
	}

	sizeBytes := CalculateSize(items)

	ref := &LazyArrayReference{
		Type:             LazyArrayType,
		Entity:           entity,
		ParentID:         parentID,
		Count:            len(items),
		Summary:          summary,
		SummaryVerbosity: string(summaryVerbosity),
		LoadURL:          fmt.Sprintf("/api/%s?parent_id=%s", entity, parentID),
		FieldsAvailable:  fieldsAvailable(entity, items),
		EstimatedSizeKB:  math.Round(float64(sizeBytes)/1024*100) / 100,
	}

	if r.store != nil {
		handle, err := r.store.Store(ctx, entity, items, opts.ToolName, string(VerbosityRaw), opts.Instance, r.cfg.HandleTTL)
		if err != nil {
			r.logger.Warn("lazy array store failed, continuing with summary only",
				logging.Entity(entity),
				logging.SanitizedErr(err))
		} else {
			ref.Handle = handle
		}
	}

	return ref
}

// ProcessObject walks a response object and replaces every oversized array
// field with a lazy reference. Nested objects are recursed into; arrays are
// only replaced as values of object fields, never recursed into directly.
// The entity name for each reference is inferred from the parent id's prefix
// concatenated with the field name (est123 + items -> estimate_items).
func (r *LazyReferencer) ProcessObject(ctx context.Context, obj map[string]any, parentID string, opts ReferenceOptions) map[string]any {
	if obj == nil {
		return nil
	}
	result := make(map[string]any, len(obj))
	for name, val := range obj {
		switch v := val.(type) {
		case []any:
			entity := entityForParent(parentID) + "_" + name
			result[name] = r.CreateReference(ctx, entity, parentID, v, opts)
		case map[string]any:
			result[name] = r.ProcessObject(ctx, v, parentID, opts)
		default:
			result[name] = val
		}
	}
	return result
}

// LoadFull reconstructs the full array behind a reference. When the handle
// is absent, expired, or the store read fails, the preview summary is
// returned as a best-effort fallback; LoadFull never fails.
func (r *LazyReferencer) LoadFull(ctx context.Context, ref *LazyArrayReference, instance string) []any {
	if ref == nil {
		return nil
	}
	if ref.Handle == "" || r.store == nil {
		return ref.Summary
	}

	result, err := r.store.Retrieve(ctx, ref.Handle, instance)
	if err != nil {
		r.logger.Warn("lazy array load fell back to summary",
			logging.Handle(ref.Handle),
			logging.SanitizedErr(err))
		return ref.Summary
	}

	items, ok := result.Data.([]any)
	if !ok {
		return ref.Summary
	}
	return items
}

// presetFor returns the preview field list for an entity type and tier.
// The raw tier and unknown entities select nothing (unmodified preview).
func presetFor(entity string, v Verbosity) []string {
	if v == VerbosityRaw {
		return nil
	}
	tiers, ok := entityFieldPresets[entity]
	if !ok {
		return nil
	}
	return tiers[v]
}

// fieldsAvailable reports the field names a caller can select when loading
// the full array: the detailed preset for known entities, otherwise the keys
// of the first object element.
func fieldsAvailable(entity string, items []any) []string {
	if tiers, ok := entityFieldPresets[entity]; ok {
		return tiers[VerbosityDetailed]
	}
	if len(items) == 0 {
		return nil
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(first))
	for name := range first {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// entityForParent infers the entity family from a parent id prefix.
func entityForParent(parentID string) string {
	for _, p := range parentPrefixEntities {
		if strings.HasPrefix(parentID, p.prefix) {
			return p.entity
		}
	}
	return "entity"
}
