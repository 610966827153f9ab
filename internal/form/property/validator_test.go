package property_test

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProviderStore struct {
	accounts  map[uuid.UUID]property.StripeAccount
	workspace map[uuid.UUID]uuid.UUID
}

func (s *stubProviderStore) GetByID(_ context.Context, id uuid.UUID) (property.StripeAccount, error) {
	account, ok := s.accounts[id]
	if !ok {
		return property.StripeAccount{}, context.Canceled
	}
	return account, nil
}

func (s *stubProviderStore) BelongsToWorkspace(_ context.Context, providerID uuid.UUID, workspaceID uuid.UUID) (bool, error) {
	return s.workspace[providerID] == workspaceID, nil
}

func newRule(t *testing.T) *property.Rule {
	t.Helper()
	return property.NewRule(zap.NewNop(), &stubProviderStore{}, false)
}

func TestRuleValidate_NonArrayValue(t *testing.T) {
	t.Parallel()

	rule := newRule(t)

	fieldErrors, err := rule.Validate(context.Background(), "not an array", nil)

	require.ErrorIs(t, err, property.ErrPropertiesInvalid)
	require.Equal(t, []string{"Properties must be an array."}, fieldErrors["properties"])
}

func TestRuleValidate_ValidSet(t *testing.T) {
	t.Parallel()

	rule := newRule(t)

	value := []map[string]any{
		{"id": "f1", "name": "Your name", "type": "text", "required": true},
		{"id": "f2", "name": "Birthday", "type": "date", "with_time": false},
		{"id": "f3", "name": "Intro", "type": "nf-text"},
	}

	fieldErrors, err := rule.Validate(context.Background(), value, nil)

	require.NoError(t, err)
	require.Nil(t, fieldErrors)
}

func TestRuleValidate_ErrorsKeyedByIndex(t *testing.T) {
	t.Parallel()

	rule := newRule(t)

	value := []map[string]any{
		{"id": "f1", "name": "Valid", "type": "text"},
		{"id": "f2", "type": "text"},
	}

	fieldErrors, err := rule.Validate(context.Background(), value, nil)

	require.ErrorIs(t, err, property.ErrPropertiesInvalid)
	require.NotContains(t, fieldErrors, "properties.0.name")
	require.Equal(t, []string{"The form block number 2 is missing a name."}, fieldErrors["properties.1.name"])
}

func TestRuleValidate_NonObjectEntry(t *testing.T) {
	t.Parallel()

	rule := newRule(t)

	value := []any{
		map[string]any{"id": "f1", "name": "Valid", "type": "text"},
		"not an object",
	}

	fieldErrors, err := rule.Validate(context.Background(), value, nil)

	require.ErrorIs(t, err, property.ErrPropertiesInvalid)
	require.Equal(t, []string{"Property at index 1 must be an object."}, fieldErrors["properties.1"])
}

func TestRuleValidate_AccumulatesMultipleValidators(t *testing.T) {
	t.Parallel()

	rule := newRule(t)

	value := []map[string]any{
		{"id": "f1", "name": "Field", "type": "text", "hidden": "yes", "max_char_limit": 0},
	}

	fieldErrors, err := rule.Validate(context.Background(), value, nil)

	require.ErrorIs(t, err, property.ErrPropertiesInvalid)
	require.Equal(t, []string{"The hidden field must be a boolean."}, fieldErrors["properties.0.hidden"])
	require.Equal(t, []string{"The max_char_limit field must be at least 1."}, fieldErrors["properties.0.max_char_limit"])
}
