package output

import (
	"regexp"
	"strings"
)

// fieldPathRegex validates a single field path: identifiers separated by
// dots, where any segment may carry a trailing "[]" array marker.
var fieldPathRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\[\])?(\.[a-zA-Z_][a-zA-Z0-9_]*(\[\])?)*$`)

// arrayMarker suffixes a path segment to mean "apply the remaining path to
// every element of this array".
const arrayMarker = "[]"

// ValidFieldPath reports whether the path conforms to the field-path grammar.
// The selector itself tolerates malformed paths (they simply fail to resolve);
// this is for caller-level validation and error messages.
func ValidFieldPath(path string) bool {
	return fieldPathRegex.MatchString(path)
}

// FieldSchema is the parsed, de-duplicated representation of a set of field
// paths. Fields maps a field name to either boolean true (copy verbatim) or
// a nested *FieldSchema. Arrays maps an array-valued field name to the list
// of dotted sub-paths to apply per element; an empty list means "include the
// array unmodified".
//
// A schema is built once per selection request and not mutated afterwards.
type FieldSchema struct {
	Fields map[string]any
	Arrays map[string][]string
}

func newFieldSchema() *FieldSchema {
	return &FieldSchema{
		Fields: make(map[string]any),
		Arrays: make(map[string][]string),
	}
}

// ParseFieldPaths builds a FieldSchema from a list of field paths.
// Duplicate paths merge without duplication; sibling paths under the same
// parent accumulate into one nested schema.
func ParseFieldPaths(paths []string) *FieldSchema {
	schema := newFieldSchema()
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		schema.addPath(strings.Split(path, "."))
	}
	return schema
}

// addPath inserts one parsed path into the schema.
func (s *FieldSchema) addPath(segments []string) {
	current := s
	for i, seg := range segments {
		if strings.HasSuffix(seg, arrayMarker) {
			name := strings.TrimSuffix(seg, arrayMarker)
			if name == "" {
				return
			}
			sub := strings.Join(segments[i+1:], ".")
			current.addArrayPath(name, sub)
			return
		}

		if i == len(segments)-1 {
			// Leaf: keep an existing nested schema if one was already built
			// from a longer sibling path.
			if _, ok := current.Fields[seg].(*FieldSchema); !ok {
				current.Fields[seg] = true
			}
			return
		}

		next, ok := current.Fields[seg].(*FieldSchema)
		if !ok {
			// A previous leaf entry for this field is widened into a nested
			// schema; the longer path is more specific.
			next = newFieldSchema()
			current.Fields[seg] = next
		}
		current = next
	}
}

// addArrayPath records a sub-path for an array field, skipping exact
// duplicates. An empty sub-path marks the whole array for inclusion.
func (s *FieldSchema) addArrayPath(name, sub string) {
	existing := s.Arrays[name]
	if sub == "" {
		if _, ok := s.Arrays[name]; !ok {
			s.Arrays[name] = []string{}
		}
		return
	}
	for _, p := range existing {
		if p == sub {
			return
		}
	}
	s.Arrays[name] = append(existing, sub)
}

// SelectFields returns a value of the same shape class as data (array stays
// array, object stays object) containing only the fields addressed by paths,
// recursively at every nesting level named in the paths.
//
// An empty path list returns data unmodified. Missing source fields are
// silently skipped; selection never errors on absent fields.
func SelectFields(data any, paths []string) any {
	if len(paths) == 0 {
		return data
	}
	return applySchema(data, ParseFieldPaths(paths))
}

// applySchema dispatches on the JSON shape of data.
// Scalars pass through unchanged.
func applySchema(data any, schema *FieldSchema) any {
	switch v := data.(type) {
	case []any:
		result := make([]any, len(v))
		for i, elem := range v {
			result[i] = applySchema(elem, schema)
		}
		return result
	case map[string]any:
		return extractFields(v, schema)
	default:
		return data
	}
}

// extractFields copies only the schema-addressed fields out of obj.
func extractFields(obj map[string]any, schema *FieldSchema) map[string]any {
	result := make(map[string]any)

	for name, sel := range schema.Fields {
		val, ok := obj[name]
		if !ok {
			continue
		}
		switch sub := sel.(type) {
		case *FieldSchema:
			result[name] = applySchema(val, sub)
		default:
			result[name] = val
		}
	}

	for name, subPaths := range schema.Arrays {
		val, ok := obj[name]
		if !ok {
			continue
		}
		if len(subPaths) == 0 {
			result[name] = val
			continue
		}
		arr, ok := val.([]any)
		if !ok {
			continue
		}
		selected := make([]any, len(arr))
		for i, elem := range arr {
			selected[i] = extractSubPaths(elem, subPaths)
		}
		result[name] = selected
	}

	return result
}

// extractSubPaths resolves each dotted sub-path against elem independently
// and writes resolved values back into a fresh object at the same dotted
// location. Non-object elements pass through unchanged.
func extractSubPaths(elem any, subPaths []string) any {
	obj, ok := elem.(map[string]any)
	if !ok {
		return elem
	}
	result := make(map[string]any)
	for _, sub := range subPaths {
		segments := strings.Split(sub, ".")
		val, ok := resolvePath(obj, segments)
		if !ok {
			continue
		}
		setPath(result, segments, val)
	}
	return result
}

// resolvePath walks a dotted path through nested objects.
func resolvePath(obj map[string]any, segments []string) (any, bool) {
	current := any(obj)
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath writes val into obj at the dotted location, creating intermediate
// objects as needed.
func setPath(obj map[string]any, segments []string, val any) {
	for i, seg := range segments {
		if i == len(segments)-1 {
			obj[seg] = val
			return
		}
		next, ok := obj[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			obj[seg] = next
		}
		obj = next
	}
}
