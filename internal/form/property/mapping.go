package property

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/condition_mapping.yaml
var conditionMappingYAML []byte

// ComparatorDef describes one operator of a field type: the value type(s) it
// expects and an optional value format. A zero ComparatorDef means the
// operator takes no value (e.g. is_checked).
type ComparatorDef struct {
	ExpectedType ExpectedTypes `yaml:"expected_type"`
	Format       *ValueFormat  `yaml:"format"`
}

// NeedsValue reports whether a condition using this comparator must carry a
// value.
func (d ComparatorDef) NeedsValue() bool {
	return len(d.ExpectedType) > 0 || d.Format != nil
}

// ValueFormat narrows how a string value is validated. The only recognized
// format type is "regex": the value must compile as a regular expression.
type ValueFormat struct {
	Type string `yaml:"type"`
}

// ExpectedTypes accepts either a scalar or a list in YAML; a condition value
// matching any one entry suffices.
type ExpectedTypes []string

func (e *ExpectedTypes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*e = ExpectedTypes{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*e = list
		return nil
	}
	return fmt.Errorf("expected_type must be a string or a list of strings")
}

// FieldMapping holds the comparators available for one field type.
type FieldMapping struct {
	Comparators map[string]ComparatorDef `yaml:"comparators"`
}

var (
	conditionMappingOnce sync.Once
	conditionMappingData map[string]FieldMapping
)

// ConditionMapping returns the process-wide condition mapping table, parsed
// once from the embedded configuration and read-only afterwards.
func ConditionMapping() map[string]FieldMapping {
	conditionMappingOnce.Do(func() {
		if err := yaml.Unmarshal(conditionMappingYAML, &conditionMappingData); err != nil {
			// The mapping is embedded at build time; failing to parse it is a
			// programming error, not a runtime condition.
			panic(fmt.Sprintf("parse condition mapping: %v", err))
		}
	})
	return conditionMappingData
}
