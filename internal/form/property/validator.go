package property

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrPropertiesInvalid is the single failure signaled when any property in
// the set collected at least one field error. The per-field detail lives in
// the FieldErrors map, not in this error.
var ErrPropertiesInvalid = errors.New("one or more properties have validation errors")

// FieldErrors maps dotted field paths (properties.<index>.<field>) to the
// messages collected for that path. A path with several independent failures
// accumulates all of them.
type FieldErrors map[string][]string

// Add appends a message to a field path.
func (e FieldErrors) Add(key, message string) {
	e[key] = append(e[key], message)
}

// Validator inspects one property and returns field -> message pairs, empty
// when the property passes. Implementations must be safe for concurrent use;
// any per-call scratch state lives in locals, never on the receiver.
type Validator interface {
	Validate(ctx context.Context, prop Property, index int, vctx *Context) map[string]string
}

// Rule validates a full property set in a single pass: every property visits
// every registered validator in fixed order, and all errors aggregate into
// one flat map. A malformed entry never aborts the pass.
type Rule struct {
	logger     *zap.Logger
	tracer     trace.Tracer
	validators []Validator
}

// NewRule builds the rule with the standard validator chain:
// core -> type -> payment -> logic.
func NewRule(logger *zap.Logger, providers ProviderStore, selfHosted bool) *Rule {
	return &Rule{
		logger: logger,
		tracer: otel.Tracer("property/rule"),
		validators: []Validator{
			&CorePropertyValidator{},
			&TypePropertyValidator{},
			NewPaymentPropertyValidator(logger, providers, selfHosted),
			&LogicPropertyValidator{},
		},
	}
}

// Validate runs the full pass. It returns the collected field errors together
// with ErrPropertiesInvalid when anything failed, or (nil, nil) when the set
// is clean. A non-array value fails immediately without per-property
// processing.
func (r *Rule) Validate(ctx context.Context, value any, vctx *Context) (FieldErrors, error) {
	ctx, span := r.tracer.Start(ctx, "Validate")
	defer span.End()

	properties, ok := toProperties(value)
	if !ok {
		err := FieldErrors{"properties": {"Properties must be an array."}}
		span.RecordError(ErrPropertiesInvalid)
		return err, ErrPropertiesInvalid
	}

	if vctx == nil {
		vctx = &Context{}
	}
	vctx.Properties = properties

	allErrors := make(FieldErrors)
	for index, prop := range properties {
		if prop == nil {
			allErrors.Add(fmt.Sprintf("properties.%d", index), fmt.Sprintf("Property at index %d must be an object.", index))
			continue
		}

		for _, v := range r.validators {
			for field, message := range v.Validate(ctx, prop, index, vctx) {
				allErrors.Add(fmt.Sprintf("properties.%d.%s", index, field), message)
			}
		}
	}

	if len(allErrors) > 0 {
		span.RecordError(ErrPropertiesInvalid)
		return allErrors, ErrPropertiesInvalid
	}

	return nil, nil
}

// toProperties normalizes the raw decoded value into the property slice.
// Entries that are not objects become nil markers so the pass can report them
// individually without handing them to the validators.
func toProperties(value any) ([]Property, bool) {
	switch v := value.(type) {
	case []Property:
		return v, true
	case []map[string]any:
		out := make([]Property, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	case []any:
		out := make([]Property, len(v))
		for i, entry := range v {
			if m, ok := entry.(map[string]any); ok {
				out[i] = m
			}
		}
		return out, true
	}
	return nil, false
}
