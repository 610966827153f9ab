package property

import (
	"context"
	"strings"

	"github.com/sheikharifulislam/OpnForm/internal/mention"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPaymentAmount = 1

// StripeAccount is the provider record a payment block references through
// stripe_account_id.
type StripeAccount struct {
	ID             uuid.UUID
	Provider       string
	ProviderUserID string
}

// ProviderStore is the external lookup the payment validator depends on. Any
// storage satisfying these two reads is sufficient.
type ProviderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (StripeAccount, error)
	BelongsToWorkspace(ctx context.Context, providerID uuid.UUID, workspaceID uuid.UUID) (bool, error)
}

// PaymentPropertyValidator validates payment blocks. Checks run in order and
// short-circuit on the first failure: payment misconfiguration is reported
// one reason at a time.
type PaymentPropertyValidator struct {
	logger     *zap.Logger
	providers  ProviderStore
	selfHosted bool
}

func NewPaymentPropertyValidator(logger *zap.Logger, providers ProviderStore, selfHosted bool) *PaymentPropertyValidator {
	return &PaymentPropertyValidator{
		logger:     logger,
		providers:  providers,
		selfHosted: selfHosted,
	}
}

func (v *PaymentPropertyValidator) Validate(ctx context.Context, prop Property, _ int, vctx *Context) map[string]string {
	errs := make(map[string]string)

	if prop.Type() != "payment" {
		return errs
	}

	if v.selfHosted {
		errs["type"] = "Payment block is not allowed on self hosted. Please use our hosted version."
		return errs
	}

	paymentBlockCount := 0
	for _, other := range vctx.Properties {
		if other.Type() == "payment" {
			paymentBlockCount++
		}
	}
	if paymentBlockCount > 1 {
		errs["type"] = "Only one payment block allowed"
		return errs
	}

	if !v.amountIsValid(prop["amount"]) {
		errs["amount"] = "Amount must be a number of at least 1 or a field reference"
		return errs
	}

	currency, _ := prop["currency"].(string)
	if _, ok := StripeCurrencyCodes()[strings.ToUpper(currency)]; !ok {
		errs["currency"] = "Currency must be a valid currency"
		return errs
	}

	accountID, _ := prop["stripe_account_id"].(string)
	if accountID == "" {
		errs["stripe_account_id"] = "Stripe account is required"
		return errs
	}

	if message := v.checkStripeAccount(ctx, accountID, vctx.WorkspaceID); message != "" {
		errs["stripe_account_id"] = message
		return errs
	}

	return errs
}

// amountIsValid accepts a numeric amount of at least the minimum, or a string
// carrying a mention marker whose resolution is deferred to submission time.
// The numeric validity of mention-based amounts is not checked here.
func (v *PaymentPropertyValidator) amountIsValid(amount any) bool {
	if s, ok := amount.(string); ok && mention.Contains(s) {
		return true
	}
	return isNumeric(amount) && asFloat(amount) >= minPaymentAmount
}

func (v *PaymentPropertyValidator) checkStripeAccount(ctx context.Context, accountID string, workspaceID uuid.UUID) string {
	providerID, err := uuid.Parse(accountID)
	if err != nil {
		return "Failed to validate Stripe account"
	}

	account, err := v.providers.GetByID(ctx, providerID)
	if err != nil {
		v.logger.Error("Failed to validate Stripe account",
			zap.Error(err),
			zap.String("account_id", accountID))
		return "Failed to validate Stripe account"
	}

	if workspaceID == uuid.Nil {
		return ""
	}

	associated, err := v.providers.BelongsToWorkspace(ctx, account.ID, workspaceID)
	if err != nil {
		v.logger.Error("Failed to validate Stripe account",
			zap.Error(err),
			zap.String("account_id", accountID))
		return "Failed to validate Stripe account"
	}
	if !associated {
		v.logger.Error("Attempted to use Stripe account not associated with the workspace",
			zap.String("stripe_account_id", accountID),
			zap.String("provider_id", account.ID.String()),
			zap.String("workspace_id", workspaceID.String()))
		return "The configured Stripe account is not associated with this workspace"
	}

	return ""
}
