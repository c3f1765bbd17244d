package charge

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/types"
)

// Charge represents one issuance of a payment request at the gateway.
// A subscriber has at most one active charge; a re-issuance supersedes
// the previous one without cancelling it at the gateway.
type Charge struct {
	// Unique internal identifier for this issuance attempt
	ID string `json:"id"`
	// The chat_id of the subscriber this charge bills
	ChatID int64 `json:"chat_id"`
	// The gateway_charge_id is the identifier returned by the gateway
	GatewayChargeID string `json:"gateway_charge_id"`
	// The merchant_reference is a separate correlation id some gateways require (optional)
	MerchantReference string `json:"merchant_reference,omitempty"`
	// The amount field specifies the charge value
	Amount decimal.Decimal `json:"amount"`
	// The payment_code is the copy-paste PIX payment string
	PaymentCode string `json:"payment_code"`
	// The payment_image is the rendered QR code, when the gateway returned one (optional)
	PaymentImage []byte `json:"payment_image,omitempty"`
	// The status shows the current state of this charge
	Status types.ChargeStatus `json:"status"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New builds a pending charge with a fresh internal id
func New(chatID int64, amount decimal.Decimal, expiry time.Duration) *Charge {
	now := time.Now().UTC()
	return &Charge{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		ChatID:    chatID,
		Amount:    amount,
		Status:    types.ChargeStatusPending,
		IssuedAt:  now,
		ExpiresAt: now.Add(expiry),
	}
}

// Validate validates the charge
func (c *Charge) Validate() error {
	if c.ChatID == 0 {
		return ierr.NewError("invalid chat id").
			WithHint("Chat id is required").
			Mark(ierr.ErrValidation)
	}
	if c.GatewayChargeID == "" {
		return ierr.NewError("invalid gateway charge id").
			WithHint("Gateway charge id is required").
			Mark(ierr.ErrValidation)
	}
	if c.PaymentCode == "" {
		return ierr.NewError("invalid payment code").
			WithHint("Payment code is required").
			Mark(ierr.ErrValidation)
	}
	if c.Amount.IsZero() || c.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	return c.Status.Validate()
}

// Expired reports whether the charge passed its expiry at the given time
func (c *Charge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
