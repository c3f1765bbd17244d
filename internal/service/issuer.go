package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/samber/lo"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/domain/charge"
	"github.com/recurpix/recurpix/internal/domain/subscriber"
	"github.com/recurpix/recurpix/internal/integration/depix"
	"github.com/recurpix/recurpix/internal/integration/telegram"
	"github.com/recurpix/recurpix/internal/logger"
)

// chargeCallbackPrefix correlates the paid button with its gateway charge id
const chargeCallbackPrefix = "paid:"

// ChargeIssuer builds a gateway charge for a subscriber and presents it
// on the chat channel with a single "mark as paid" affordance
type ChargeIssuer struct {
	gateway   depix.Client
	presenter *Presenter
	cfg       *config.Configuration
	logger    *logger.Logger
}

// NewChargeIssuer creates a new ChargeIssuer
func NewChargeIssuer(gateway depix.Client, presenter *Presenter, cfg *config.Configuration, log *logger.Logger) *ChargeIssuer {
	return &ChargeIssuer{
		gateway:   gateway,
		presenter: presenter,
		cfg:       cfg,
		logger:    log,
	}
}

// Issue submits a charge for the subscriber's configured amount and
// presents the payment artifact, replacing any previous live message.
// The returned charge is not yet recorded anywhere; the orchestrator
// owns the active charge state.
func (i *ChargeIssuer) Issue(ctx context.Context, sub *subscriber.Subscriber) (*charge.Charge, error) {
	taxID := lo.FromPtr(sub.TaxID)
	if taxID == "" {
		taxID = i.cfg.Gateway.DefaultTaxID
	}

	amount := sub.Amount.Round(2)
	resp, err := i.gateway.CreateCharge(ctx, &depix.CreateChargeRequest{
		Amount:      amount,
		Description: i.cfg.Gateway.Description,
		Recipient:   i.cfg.Gateway.Recipient,
		TaxID:       taxID,
	})
	if err != nil {
		return nil, err
	}

	ch := charge.New(sub.ChatID, amount, i.cfg.Billing.ChargeExpiry)
	ch.GatewayChargeID = resp.ChargeID
	ch.MerchantReference = resp.MerchantReference
	ch.PaymentCode = resp.PaymentCode

	if image, err := base64.StdEncoding.DecodeString(resp.QRImageBase64); err == nil {
		ch.PaymentImage = image
	} else {
		i.logger.Warnw("gateway qr image is not valid base64, presenting text only",
			"gateway_charge_id", resp.ChargeID)
	}

	if err := ch.Validate(); err != nil {
		return nil, err
	}

	if err := i.present(ctx, ch); err != nil {
		// The charge exists at the gateway; the subscriber just cannot
		// see it. The next retry tick supersedes it with a fresh one.
		i.logger.Errorw("failed to present charge",
			"chat_id", sub.ChatID,
			"gateway_charge_id", ch.GatewayChargeID,
			"error", err)
		return nil, err
	}

	i.logger.Infow("charge issued",
		"chat_id", sub.ChatID,
		"gateway_charge_id", ch.GatewayChargeID,
		"amount", amount.String())
	return ch, nil
}

func (i *ChargeIssuer) present(ctx context.Context, ch *charge.Charge) error {
	caption := fmt.Sprintf(msgChargeCaption, ch.Amount.StringFixed(2), ch.PaymentCode)
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{
				Text:         msgMarkPaidButton,
				CallbackData: chargeCallbackPrefix + ch.GatewayChargeID,
			},
		}},
	}

	if len(ch.PaymentImage) > 0 {
		return i.presenter.PresentPhoto(ctx, ch.ChatID, ch.PaymentImage, caption, markup)
	}
	return i.presenter.PresentText(ctx, ch.ChatID, caption, markup)
}
