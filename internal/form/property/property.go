// Package property implements the single-pass validation engine for form
// block definitions. A form's schema is an ordered list of heterogeneous,
// user-authored blocks (text fields, dates, selects, payment blocks, layout
// markers, conditional logic trees); every save runs the full list through a
// fixed chain of validators and reports all field-level errors at once.
package property

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LayoutBlockPrefix marks non-input blocks (nf-text, nf-divider, ...).
// Layout blocks carry no answer and no type-specific constraints.
const LayoutBlockPrefix = "nf-"

// LayoutBlockTypes lists the layout block types that may only be targeted by
// show/hide logic actions.
var LayoutBlockTypes = []string{"nf-text", "nf-code", "nf-page-break", "nf-divider", "nf-image", "nf-video"}

// Property is one form block as authored in the builder. Blocks are
// heterogeneous JSON objects, so they are kept schemaless and inspected
// through the typed accessors below.
type Property map[string]any

// Context carries the shared state validators need beyond the single
// property: the full property set (for cross-property checks such as the
// payment block count) and the owning workspace.
type Context struct {
	Properties  []Property
	WorkspaceID uuid.UUID
}

// Type returns the block type, or the empty string when absent or not a string.
func (p Property) Type() string {
	t, _ := p["type"].(string)
	return t
}

// Name returns the block name, falling back to "Unknown" for error messages.
func (p Property) Name() string {
	if n, ok := p["name"].(string); ok && n != "" {
		return n
	}
	return "Unknown"
}

// IsLayoutBlock reports whether the block is a non-input layout marker.
func (p Property) IsLayoutBlock() bool {
	return strings.HasPrefix(p.Type(), LayoutBlockPrefix)
}

// flag returns a boolean field treating absent, null, and non-boolean values
// as false. Used for hidden/required/disabled state in logic action checks.
func (p Property) flag(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// isSet reports whether key is present with a non-nil value.
func (p Property) isSet(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// isBooleanish reports whether v is a boolean or one of the accepted boolean
// literals 0, 1, "0", "1". Comparison is strict: other numbers and strings
// are rejected.
func isBooleanish(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		return t == "0" || t == "1"
	case float64:
		return t == 0 || t == 1
	case int:
		return t == 0 || t == 1
	}
	return false
}

// isIntegerish reports whether v is an integer, an integral JSON number, or a
// string of digits with optional sign.
func isIntegerish(v any) bool {
	switch t := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return t == math.Trunc(t) && !math.IsInf(t, 0)
	case string:
		s := strings.TrimPrefix(t, "-")
		if s == "" {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

// isNumeric mirrors a loose numeric check: any number, or a string that
// parses as one.
func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64, int, int32, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return err == nil
	}
	return false
}

// asFloat converts a numeric or numeric-string value to float64. Callers must
// have checked isNumeric or isIntegerish first.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}
