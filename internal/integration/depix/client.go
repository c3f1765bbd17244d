package depix

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"

	"github.com/recurpix/recurpix/internal/config"
	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/httpclient"
	"github.com/recurpix/recurpix/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusSettled is the gateway status value that marks a charge as paid.
// Every other status is treated as not settled.
const StatusSettled = "depix_sent"

// Client defines the interface for DEPIX gateway operations
type Client interface {
	CreateCharge(ctx context.Context, req *CreateChargeRequest) (*CreateChargeResponse, error)
	GetStatus(ctx context.Context, chargeID string) (*StatusResponse, error)
}

type client struct {
	cfg    config.GatewayConfig
	http   httpclient.Client
	logger *logger.Logger
}

// NewClient creates a new DEPIX gateway client
func NewClient(cfg *config.Configuration, http httpclient.Client, log *logger.Logger) Client {
	return &client{
		cfg:    cfg.Gateway,
		http:   http,
		logger: log,
	}
}

// CreateCharge mints a new PIX charge at the gateway
func (c *client) CreateCharge(ctx context.Context, req *CreateChargeRequest) (*CreateChargeResponse, error) {
	body, err := json.Marshal(depositRequest{
		AmountInCents:  req.Amount.Round(2).Mul(centsFactor).IntPart(),
		DepixAddress:   req.Recipient,
		Description:    req.Description,
		PayerTaxNumber: req.TaxID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode charge request").
			Mark(ierr.ErrSystem)
	}

	resp, err := c.send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/deposit", c.cfg.BaseURL),
		Headers: c.headers(),
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	var deposit depositResponse
	if err := json.Unmarshal(resp.Body, &deposit); err != nil {
		c.logger.Errorw("failed to decode gateway create response",
			"status_code", resp.StatusCode,
			"body", string(resp.Body))
		return nil, ierr.WithError(err).
			WithHint("Payment gateway returned an unreadable response").
			Mark(ierr.ErrInvalidResponse)
	}

	// A success response missing any of these fields cannot be presented
	// to the subscriber and is distinct from a transport failure.
	if deposit.Response.ID == "" || deposit.Response.QRCopyPaste == "" || deposit.Response.QRImageBase64 == "" {
		c.logger.Errorw("gateway create response missing required fields",
			"charge_id", deposit.Response.ID,
			"has_payment_code", deposit.Response.QRCopyPaste != "",
			"has_qr_image", deposit.Response.QRImageBase64 != "")
		return nil, ierr.NewError("gateway response missing required fields").
			WithHint("Payment gateway returned an incomplete charge").
			Mark(ierr.ErrInvalidResponse)
	}

	return &CreateChargeResponse{
		ChargeID:          deposit.Response.ID,
		PaymentCode:       deposit.Response.QRCopyPaste,
		QRImageBase64:     deposit.Response.QRImageBase64,
		MerchantReference: deposit.Response.TransactionID,
	}, nil
}

// GetStatus looks up the settlement status of a charge by its gateway id
func (c *client) GetStatus(ctx context.Context, chargeID string) (*StatusResponse, error) {
	resp, err := c.send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/deposit-status?id=%s", c.cfg.BaseURL, url.QueryEscape(chargeID)),
		Headers: c.headers(),
	})
	if err != nil {
		return nil, err
	}

	var status depositStatusResponse
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		c.logger.Errorw("failed to decode gateway status response",
			"charge_id", chargeID,
			"body", string(resp.Body))
		return nil, ierr.WithError(err).
			WithHint("Payment gateway returned an unreadable status").
			Mark(ierr.ErrInvalidResponse)
	}

	return &StatusResponse{Status: status.Response.Status}, nil
}

// send wraps the underlying client with a short exponential retry for
// transient transport failures. 4xx outcomes are permanent.
func (c *client) send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	var resp *httpclient.Response

	operation := func() error {
		var err error
		resp, err = c.http.Send(ctx, req)
		if err == nil {
			return nil
		}
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx)); err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			c.logger.Errorw("gateway request failed",
				"method", req.Method,
				"url", req.URL,
				"status_code", httpErr.StatusCode,
				"body", string(httpErr.Response))
		} else {
			c.logger.Errorw("gateway request failed",
				"method", req.Method,
				"url", req.URL,
				"error", err)
		}
		return nil, ierr.WithError(err).
			WithHint("Payment gateway is unreachable").
			Mark(ierr.ErrGatewayTransport)
	}
	return resp, nil
}

func (c *client) headers() map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", c.cfg.APIKey),
	}
}
