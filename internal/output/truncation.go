package output

import (
	"fmt"
	"unicode/utf8"
)

// truncationSuffix marks a string leaf that was shortened.
const truncationSuffix = "..."

// TruncateStrings walks a JSON value and truncates every string leaf longer
// than maxLen runes, appending an ellipsis. Truncation happens on a rune
// boundary so multi-byte text never becomes invalid UTF-8. Objects and
// arrays are rebuilt so the input is never mutated.
func TruncateStrings(data any, maxLen int) any {
	if maxLen <= 0 {
		maxLen = DefaultMaxTextFieldLength
	}
	switch v := data.(type) {
	case string:
		return truncateString(v, maxLen)
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = TruncateStrings(val, maxLen)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = TruncateStrings(val, maxLen)
		}
		return result
	default:
		return data
	}
}

// truncateString shortens s to maxLen runes. ASCII-only strings take the
// fast path since their byte and rune lengths coincide.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i] + truncationSuffix
		}
		count++
	}
	return s
}

// RowWarning describes an inline row cap being applied to an array result.
type RowWarning struct {
	// Shown is the number of rows returned inline.
	Shown int `json:"shown"`

	// Total is the number of rows before slicing.
	Total int `json:"total"`

	// Message is a human-readable warning.
	Message string `json:"message"`
}

// SliceRows caps an array result to maxRows elements. Non-array values and
// arrays at or under the cap are returned unchanged with a nil warning.
func SliceRows(data any, maxRows int) (any, *RowWarning) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRowsPerPage
	}
	arr, ok := data.([]any)
	if !ok || len(arr) <= maxRows {
		return data, nil
	}

	warning := &RowWarning{
		Shown:   maxRows,
		Total:   len(arr),
		Message: fmt.Sprintf("Showing %d of %d rows. Retrieve the full result via its handle or narrow the query.", maxRows, len(arr)),
	}
	return arr[:maxRows], warning
}
