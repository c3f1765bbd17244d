package types

import (
	"strings"
	"unicode"

	ierr "github.com/recurpix/recurpix/internal/errors"
)

// Accepted tax identifier lengths: CPF has 11 digits, CNPJ has 14.
const (
	TaxIDLengthCPF  = 11
	TaxIDLengthCNPJ = 14
)

// NormalizeTaxID strips every non-digit character from the input and
// validates the remaining digit string as a CPF or CNPJ
func NormalizeTaxID(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) != TaxIDLengthCPF && len(digits) != TaxIDLengthCNPJ {
		return "", ierr.NewError("invalid tax identifier").
			WithHintf("Tax identifier must have %d or %d digits, got %d", TaxIDLengthCPF, TaxIDLengthCNPJ, len(digits)).
			Mark(ierr.ErrValidation)
	}
	return digits, nil
}
