package property

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Enumerated values for the shared presentation fields.
var (
	validHelpPositions = []string{"below_input", "above_input"}
	validWidths        = []string{"full", "1/2", "1/3", "2/3", "3/4", "1/4"}
	validAligns        = []string{"left", "center", "right", "justify"}
	validImageLayouts  = []string{"between", "left-small", "right-small", "left-split", "right-split", "background"}
)

const maxImageAltLength = 125

// CorePropertyValidator checks the fields common to every block type:
// required identity fields, shared boolean flags, presentation enums, and the
// nested image configuration. It is pure and stateless.
type CorePropertyValidator struct{}

func (v *CorePropertyValidator) Validate(_ context.Context, prop Property, index int, _ *Context) map[string]string {
	errs := make(map[string]string)
	position := index + 1 // 1-based for user-facing messages

	if s, _ := prop["id"].(string); !prop.isSet("id") || s == "" {
		errs["id"] = fmt.Sprintf("The form block number %d is missing an id.", position)
	}
	if s, _ := prop["name"].(string); !prop.isSet("name") || s == "" {
		errs["name"] = fmt.Sprintf("The form block number %d is missing a name.", position)
	}
	if s, _ := prop["type"].(string); !prop.isSet("type") || s == "" {
		errs["type"] = fmt.Sprintf("The form block number %d is missing a type.", position)
	}

	for _, field := range []string{"hidden", "required", "multiple", "use_toggle_switch"} {
		if prop.isSet(field) && !isBooleanish(prop[field]) {
			errs[field] = fmt.Sprintf("The %s field must be a boolean.", field)
		}
	}

	v.checkEnum(prop, "help_position", validHelpPositions, errs)
	v.checkEnum(prop, "width", validWidths, errs)
	v.checkEnum(prop, "align", validAligns, errs)

	if image, ok := prop["image"].(map[string]any); ok {
		v.validateImage(image, errs)
	}

	return errs
}

func (v *CorePropertyValidator) checkEnum(prop Property, field string, allowed []string, errs map[string]string) {
	if !prop.isSet(field) {
		return
	}
	value, ok := prop[field].(string)
	if !ok || !contains(allowed, value) {
		errs[field] = fmt.Sprintf("The %s must be one of: %s", field, strings.Join(allowed, ", "))
	}
}

func (v *CorePropertyValidator) validateImage(image map[string]any, errs map[string]string) {
	if raw, ok := image["url"]; ok && raw != nil {
		if s, ok := raw.(string); !ok || !isValidURL(s) {
			errs["image.url"] = "The image URL must be a valid URL."
		}
	}

	if raw, ok := image["alt"]; ok && raw != nil {
		if s, ok := raw.(string); !ok || utf8.RuneCountInString(s) > maxImageAltLength {
			errs["image.alt"] = fmt.Sprintf("The image alt text must be a string with max %d characters.", maxImageAltLength)
		}
	}

	if raw, ok := image["layout"]; ok && raw != nil {
		if s, ok := raw.(string); !ok || !contains(validImageLayouts, s) {
			errs["image.layout"] = fmt.Sprintf("The image layout must be one of: %s", strings.Join(validImageLayouts, ", "))
		}
	}

	if focal, ok := image["focal_point"].(map[string]any); ok {
		for _, axis := range []string{"x", "y"} {
			raw, ok := focal[axis]
			if !ok || raw == nil {
				continue
			}
			if !isNumeric(raw) || asFloat(raw) < 0 || asFloat(raw) > 100 {
				errs["image.focal_point."+axis] = fmt.Sprintf("The focal point %s must be a number between 0 and 100.", axis)
			}
		}
	}

	if raw, ok := image["brightness"]; ok && raw != nil {
		switch {
		case !isIntegerish(raw):
			errs["image.brightness"] = "The image brightness must be an integer."
		case asFloat(raw) < -100 || asFloat(raw) > 100:
			errs["image.brightness"] = "The image brightness must be between -100 and 100."
		}
	}
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func contains(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}
