package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/recurpix/recurpix/internal/integration/depix"
	"github.com/recurpix/recurpix/internal/logger"
)

// settledCacheTTL bounds how long a confirmed settlement is memoized so
// a double-tap of the paid button does not re-hit the gateway.
const settledCacheTTL = 30 * time.Second

// PaymentVerifier checks whether a charge settled at the gateway
type PaymentVerifier interface {
	// Check returns true only for the gateway's settled status. Transport
	// and decoding failures return an error; callers treat them as not
	// settled and keep retrying.
	Check(ctx context.Context, gatewayChargeID string) (bool, error)
}

type paymentVerifier struct {
	gateway depix.Client
	settled *gocache.Cache
	logger  *logger.Logger
}

// NewPaymentVerifier creates a new PaymentVerifier
func NewPaymentVerifier(gateway depix.Client, log *logger.Logger) PaymentVerifier {
	return &paymentVerifier{
		gateway: gateway,
		settled: gocache.New(settledCacheTTL, 2*settledCacheTTL),
		logger:  log,
	}
}

func (v *paymentVerifier) Check(ctx context.Context, gatewayChargeID string) (bool, error) {
	if _, found := v.settled.Get(gatewayChargeID); found {
		return true, nil
	}

	status, err := v.gateway.GetStatus(ctx, gatewayChargeID)
	if err != nil {
		v.logger.Errorw("payment verification failed",
			"gateway_charge_id", gatewayChargeID,
			"error", err)
		return false, err
	}

	if status.Status != depix.StatusSettled {
		v.logger.Debugw("charge not settled yet",
			"gateway_charge_id", gatewayChargeID,
			"status", status.Status)
		return false, nil
	}

	// Only confirmed settlements are cached; a pending status must keep
	// hitting the gateway.
	v.settled.SetDefault(gatewayChargeID, true)
	return true, nil
}
