package subscriber

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/types"
)

const (
	MinBillingDay = 1
	MaxBillingDay = 31
)

// Subscriber represents a recurring billing profile for one chat user
type Subscriber struct {
	// Unique internal identifier for this subscriber
	ID string `json:"id"`
	// The chat_id is the opaque external identity assigned by the chat channel
	ChatID int64 `json:"chat_id"`
	// The display_name is used when composing messages to the subscriber
	DisplayName string `json:"display_name"`
	// The billing_day is the day of month (1-31) on which charges are issued
	BillingDay int `json:"billing_day"`
	// The amount field specifies the recurring charge value
	Amount decimal.Decimal `json:"amount"`
	// The tax_id is a normalized CPF (11 digits) or CNPJ (14 digits), present
	// only when the gateway is configured to require one per subscriber
	TaxID *string `json:"tax_id,omitempty"`
	// The active flag suppresses future billing without deleting the profile
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New builds a subscriber with a fresh internal id
func New(chatID int64, displayName string) *Subscriber {
	now := time.Now().UTC()
	return &Subscriber{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIBER),
		ChatID:      chatID,
		DisplayName: displayName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates the subscriber profile
func (s *Subscriber) Validate(maxAmount decimal.Decimal) error {
	if s.ChatID == 0 {
		return ierr.NewError("invalid chat id").
			WithHint("Chat id is required").
			Mark(ierr.ErrValidation)
	}
	if s.BillingDay < MinBillingDay || s.BillingDay > MaxBillingDay {
		return ierr.NewError("invalid billing day").
			WithHintf("Billing day must be between %d and %d", MinBillingDay, MaxBillingDay).
			Mark(ierr.ErrValidation)
	}
	if s.Amount.IsZero() || s.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if s.Amount.GreaterThan(maxAmount) {
		return ierr.NewError("amount above policy maximum").
			WithHintf("Amount must not exceed %s", maxAmount.String()).
			Mark(ierr.ErrValidation)
	}
	if s.TaxID != nil {
		if _, err := types.NormalizeTaxID(*s.TaxID); err != nil {
			return err
		}
	}
	return nil
}
