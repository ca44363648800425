// Package output implements the response-size-management pipeline.
//
// JobNimbus payloads are arbitrarily large and deeply nested; LLM tool-call
// responses must stay small and bounded. The pipeline transforms one into
// the other deterministically:
//
//  1. Field selection - dotted paths with [] array markers pick sub-fields
//  2. Verbosity limiting - tiered field caps with core-field priority
//  3. String truncation and inline row slicing
//  4. Size classification against warn and hard thresholds
//  5. Deferral of over-threshold payloads to the handle store, returning a
//     bounded summary plus a retrievable handle
//
// Oversized nested arrays are independently replaced by lazy references
// carrying a preview and their own handle.
//
// All stages are pure over plain JSON values (map[string]any / []any /
// scalars) except handle storage, which is isolated behind the store so the
// shaping itself stays deterministic and testable.
package output
