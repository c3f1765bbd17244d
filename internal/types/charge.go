package types

import (
	ierr "github.com/recurpix/recurpix/internal/errors"
)

// ChargeStatus represents the status of a charge issued at the gateway
type ChargeStatus string

const (
	ChargeStatusPending ChargeStatus = "PENDING"
	ChargeStatusPaid    ChargeStatus = "PAID"
	ChargeStatusUnknown ChargeStatus = "UNKNOWN"
	ChargeStatusFailed  ChargeStatus = "FAILED"
)

func (s ChargeStatus) String() string {
	return string(s)
}

func (s ChargeStatus) Validate() error {
	allowed := []ChargeStatus{
		ChargeStatusPending,
		ChargeStatusPaid,
		ChargeStatusUnknown,
		ChargeStatusFailed,
	}
	for _, status := range allowed {
		if s == status {
			return nil
		}
	}
	return ierr.NewError("invalid charge status").
		WithHintf("Charge status must be one of %v", allowed).
		Mark(ierr.ErrValidation)
}
