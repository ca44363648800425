package output

import "sort"

// ApplyVerbosity caps the number of fields retained per object according to
// the verbosity tier. maxFields overrides the tier's configured cap when
// positive; the raw tier bypasses limiting entirely.
//
// Arrays are limited element by element. Objects at or under the cap are
// returned unchanged. Over-cap objects are rebuilt with core fields first,
// then remaining fields until the cap is reached. Dropping is lossy by
// design and never raises an error.
func ApplyVerbosity(data any, level Verbosity, maxFields int) any {
	if level == VerbosityRaw {
		return data
	}
	if maxFields <= 0 {
		maxFields = DefaultConfig().MaxFields(level)
	}

	switch v := data.(type) {
	case []any:
		result := make([]any, len(v))
		for i, elem := range v {
			result[i] = limitObject(elem, maxFields)
		}
		return result
	default:
		return limitObject(data, maxFields)
	}
}

// limitObject caps a single object's field count. Non-object values pass
// through unchanged.
func limitObject(data any, maxFields int) any {
	obj, ok := data.(map[string]any)
	if !ok {
		return data
	}
	if len(obj) <= maxFields {
		return obj
	}

	result := make(map[string]any, maxFields)

	// Core fields first, in priority order.
	for _, name := range CoreFields {
		if len(result) >= maxFields {
			return result
		}
		if val, ok := obj[name]; ok {
			result[name] = val
		}
	}

	// Fill remaining capacity with the other fields. Go maps carry no
	// document order, so the remainder is taken in sorted key order to keep
	// the cap deterministic.
	rest := make([]string, 0, len(obj))
	for name := range obj {
		if _, taken := result[name]; taken {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)

	for _, name := range rest {
		if len(result) >= maxFields {
			break
		}
		result[name] = obj[name]
	}

	return result
}
