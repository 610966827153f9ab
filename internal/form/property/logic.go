package property

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ActionValues is the fixed set of logic actions a block may declare.
var ActionValues = []string{
	"show-block",
	"hide-block",
	"make-it-optional",
	"require-answer",
	"enable-block",
	"disable-block",
}

// LogicPropertyValidator validates a block's conditional logic: the recursive
// boolean condition tree against the process-wide condition mapping, and the
// action list against the block's hidden/required/disabled state. The
// validator itself holds no state; every call builds a fresh logicChecker so
// concurrent validation needs no reset discipline.
type LogicPropertyValidator struct{}

func (v *LogicPropertyValidator) Validate(_ context.Context, prop Property, _ int, _ *Context) map[string]string {
	errs := make(map[string]string)

	logic, ok := prop["logic"].(map[string]any)
	if !ok || len(logic) == 0 {
		return errs
	}

	conditions, hasConditions := logic["conditions"]
	if !hasConditions || conditions == nil {
		return errs
	}

	checker := &logicChecker{
		field:       prop,
		conditionOK: true,
		actionOK:    true,
	}
	checker.checkConditions(conditions)
	checker.checkActions(logic["actions"])

	if !checker.conditionOK || !checker.actionOK {
		errs["logic"] = checker.errorMessage(prop.Name())
	}

	return errs
}

// logicChecker carries the scratch state of one Validate call: the flags for
// the two sub-checks, the accumulated structural detail tokens, and the leaf
// operator currently under inspection (needed for the regex format lookup).
type logicChecker struct {
	field       Property
	operator    string
	conditionOK bool
	actionOK    bool
	details     []string
}

func (c *logicChecker) fail(detail string) {
	c.conditionOK = false
	c.details = append(c.details, detail)
}

// checkConditions walks the condition tree. A node is either a combinator
// (operatorIdentifier + children) or a leaf (identifier + value); nodes with
// neither key are ignored.
func (c *logicChecker) checkConditions(node any) {
	conditions, ok := node.(map[string]any)
	if !ok {
		c.fail("conditions must be an array")
		return
	}

	if raw, exists := conditions["operatorIdentifier"]; exists {
		// A combinator whose operator slot itself carries nested operator
		// info is a distinct structural defect from a plain bad operator.
		if nested, ok := raw.(map[string]any); ok {
			if _, hasChildren := nested["children"]; hasChildren {
				c.fail("extra condition")
				return
			}
		}

		op, ok := raw.(string)
		if !ok || (op != "and" && op != "or") {
			c.fail("missing operator")
			return
		}

		children, ok := conditions["children"].([]any)
		if !ok {
			c.fail("wrong sub-condition type")
			return
		}

		for _, child := range children {
			c.checkConditions(child)
		}
		return
	}

	if _, exists := conditions["identifier"]; exists {
		c.checkBaseCondition(conditions)
	}
}

// checkBaseCondition validates one leaf against the condition mapping.
func (c *logicChecker) checkBaseCondition(condition map[string]any) {
	value, ok := condition["value"].(map[string]any)
	if !ok {
		c.fail("missing condition body")
		return
	}

	propertyMeta, ok := value["property_meta"].(map[string]any)
	if !ok {
		c.fail("missing condition property")
		return
	}

	fieldType, ok := propertyMeta["type"].(string)
	if !ok {
		c.fail("missing condition property type")
		return
	}

	operator, ok := value["operator"].(string)
	if !ok {
		c.fail("missing condition operator")
		return
	}
	c.operator = operator

	mapping := ConditionMapping()

	fieldMapping, ok := mapping[fieldType]
	if !ok {
		c.fail("configuration not found for condition type")
		return
	}

	comparator, ok := fieldMapping.Comparators[operator]
	if !ok {
		c.fail("configuration not found for condition operator")
		return
	}

	if !comparator.NeedsValue() {
		return
	}

	conditionValue, hasValue := value["value"]
	if !hasValue || conditionValue == nil {
		c.fail("missing condition value")
		return
	}

	for _, expected := range comparator.ExpectedType {
		if c.valueHasCorrectType(expected, conditionValue) {
			return
		}
	}
	c.fail("wrong type of condition value")
}

// valueHasCorrectType checks one candidate expected type. String values whose
// comparator declares a regex format are validated by compiling them rather
// than by plain type-checking.
func (c *logicChecker) valueHasCorrectType(expected string, value any) bool {
	if expected == "string" {
		if def, ok := ConditionMapping()[c.field.Type()].Comparators[c.operator]; ok {
			if def.Format != nil && def.Format.Type == "regex" {
				pattern, ok := value.(string)
				if !ok {
					return false
				}
				if _, err := regexp.Compile(pattern); err != nil {
					c.details = append(c.details, "invalid regex pattern")
					return false
				}
				return true
			}
		}
	}

	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumeric(value)
	case "object":
		switch value.(type) {
		case map[string]any, []any:
			return true
		}
		return false
	}
	return true
}

// checkActions validates the action list against the block's current state.
// Any offending action fails the whole list; no detail tokens are recorded.
func (c *logicChecker) checkActions(raw any) {
	actions, ok := raw.([]any)
	if !ok || len(actions) == 0 {
		c.actionOK = false
		return
	}

	isLayout := contains(LayoutBlockTypes, c.field.Type())
	isHidden := c.field.flag("hidden")
	isRequired := c.field.flag("required")
	isDisabled := c.field.flag("disabled")

	for _, entry := range actions {
		action, ok := entry.(string)
		if !ok ||
			!contains(ActionValues, action) ||
			(isLayout && !contains([]string{"hide-block", "show-block"}, action)) ||
			(isHidden && !contains([]string{"show-block", "require-answer"}, action)) ||
			(isRequired && !contains([]string{"make-it-optional", "hide-block", "disable-block"}, action)) ||
			(isDisabled && !contains([]string{"enable-block", "require-answer", "make-it-optional"}, action)) {
			c.actionOK = false
			return
		}
	}
}

// errorMessage composes the single logic error: the condition failure leads,
// the action failure follows, and any accumulated detail tokens are appended
// comma-joined.
func (c *logicChecker) errorMessage(fieldName string) string {
	var message string
	if !c.conditionOK {
		message = fmt.Sprintf("The logic conditions for %s are not complete.", fieldName)
	} else if !c.actionOK {
		message = fmt.Sprintf("The logic actions for %s are not valid.", fieldName)
	}

	if len(c.details) > 0 {
		message += " Error detail(s): " + strings.Join(c.details, ", ")
	}

	return message
}
