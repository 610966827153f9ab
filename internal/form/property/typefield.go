package property

import (
	"context"
	"fmt"
)

// fieldKind is the declared validation kind of a type-specific field.
type fieldKind string

const (
	kindBoolean  fieldKind = "boolean"
	kindInteger  fieldKind = "integer"
	kindNumeric  fieldKind = "numeric"
	kindNullable fieldKind = "nullable"
)

// fieldRule declares how one type-specific field is validated. Min/Max bounds
// apply to integer and numeric kinds only.
type fieldRule struct {
	Kind fieldKind
	Min  *float64
	Max  *float64
}

func minBound(v float64) *float64 { return &v }

// typeRules is the static per-type rule table. Fields not listed for a type
// are never validated here, so new optional builder fields stay forward
// compatible.
var typeRules = map[string]map[string]fieldRule{
	"text": {
		"multi_lines":     {Kind: kindBoolean},
		"max_char_limit":  {Kind: kindInteger, Min: minBound(1)},
		"show_char_limit": {Kind: kindBoolean},
		"secret_input":    {Kind: kindBoolean},
	},
	"date": {
		"with_time":            {Kind: kindBoolean},
		"date_range":           {Kind: kindBoolean},
		"prefill_today":        {Kind: kindBoolean},
		"disable_past_dates":   {Kind: kindBoolean},
		"disable_future_dates": {Kind: kindBoolean},
	},
	"select": {
		"allow_creation":   {Kind: kindBoolean},
		"without_dropdown": {Kind: kindBoolean},
		"min_selection":    {Kind: kindInteger, Min: minBound(0)},
		"max_selection":    {Kind: kindInteger, Min: minBound(1)},
	},
	"multi_select": {
		"allow_creation":   {Kind: kindBoolean},
		"without_dropdown": {Kind: kindBoolean},
		"min_selection":    {Kind: kindInteger, Min: minBound(0)},
		"max_selection":    {Kind: kindInteger, Min: minBound(1)},
	},
	"files": {
		"max_file_size":      {Kind: kindNumeric, Min: minBound(1)},
		"allowed_file_types": {Kind: kindNullable},
	},
	"checkbox": {
		"use_toggle_switch": {Kind: kindBoolean},
	},
}

// commonInputRules apply to every non-layout block regardless of type.
var commonInputRules = map[string]fieldRule{
	"generates_uuid":              {Kind: kindBoolean},
	"generates_auto_increment_id": {Kind: kindBoolean},
}

// TypePropertyValidator checks type-specific fields against the static rule
// table. Layout blocks and properties without a type are skipped entirely;
// type presence itself is CorePropertyValidator's job.
type TypePropertyValidator struct{}

func (v *TypePropertyValidator) Validate(_ context.Context, prop Property, _ int, _ *Context) map[string]string {
	errs := make(map[string]string)

	propType := prop.Type()
	if propType == "" || prop.IsLayoutBlock() {
		return errs
	}

	for field, rule := range typeRules[propType] {
		v.checkField(prop, field, rule, errs)
	}
	for field, rule := range commonInputRules {
		v.checkField(prop, field, rule, errs)
	}

	return errs
}

func (v *TypePropertyValidator) checkField(prop Property, field string, rule fieldRule, errs map[string]string) {
	if !prop.isSet(field) {
		return
	}
	if message := validateFieldValue(field, prop[field], rule); message != "" {
		errs[field] = message
	}
}

func validateFieldValue(field string, value any, rule fieldRule) string {
	switch rule.Kind {
	case kindBoolean:
		if !isBooleanish(value) {
			return fmt.Sprintf("The %s field must be a boolean.", field)
		}

	case kindInteger:
		if !isIntegerish(value) {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}
		if rule.Min != nil && asFloat(value) < *rule.Min {
			return fmt.Sprintf("The %s field must be at least %v.", field, *rule.Min)
		}
		if rule.Max != nil && asFloat(value) > *rule.Max {
			return fmt.Sprintf("The %s field must not be greater than %v.", field, *rule.Max)
		}

	case kindNumeric:
		if !isNumeric(value) {
			return fmt.Sprintf("The %s field must be a number.", field)
		}
		if rule.Min != nil && asFloat(value) < *rule.Min {
			return fmt.Sprintf("The %s field must be at least %v.", field, *rule.Min)
		}
		if rule.Max != nil && asFloat(value) > *rule.Max {
			return fmt.Sprintf("The %s field must not be greater than %v.", field, *rule.Max)
		}

	case kindNullable:
		// Field can hold anything.
	}

	return ""
}
