package depix

import "github.com/shopspring/decimal"

// centsFactor converts a two-decimal amount into the integer cents the
// gateway wire format expects
var centsFactor = decimal.NewFromInt(100)

// CreateChargeRequest carries everything the gateway needs to mint a
// PIX charge
type CreateChargeRequest struct {
	Amount      decimal.Decimal
	Description string
	Recipient   string
	TaxID       string
}

// CreateChargeResponse is the subset of the gateway create response the
// orchestrator consumes. ChargeID, PaymentCode and QRImageBase64 are all
// required; a 2xx response missing any of them is an invalid response.
type CreateChargeResponse struct {
	ChargeID          string
	PaymentCode       string
	QRImageBase64     string
	MerchantReference string
}

// StatusResponse is the gateway settlement status for one charge
type StatusResponse struct {
	Status string
}

// depositRequest is the gateway wire format for charge creation
type depositRequest struct {
	AmountInCents  int64  `json:"amountInCents"`
	DepixAddress   string `json:"depixAddress,omitempty"`
	Description    string `json:"description,omitempty"`
	PayerTaxNumber string `json:"payerTaxNumber,omitempty"`
}

type depositResponse struct {
	Response struct {
		ID            string `json:"id"`
		QRCopyPaste   string `json:"qrCopyPaste"`
		QRImageBase64 string `json:"qrImageBase64"`
		TransactionID string `json:"transactionId"`
	} `json:"response"`
}

type depositStatusResponse struct {
	Response struct {
		Status string `json:"status"`
	} `json:"response"`
}
