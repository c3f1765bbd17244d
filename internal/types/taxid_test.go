package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare cpf", input: "52998224725", want: "52998224725"},
		{name: "formatted cpf", input: "529.982.247-25", want: "52998224725"},
		{name: "bare cnpj", input: "11222333000181", want: "11222333000181"},
		{name: "formatted cnpj", input: "11.222.333/0001-81", want: "11222333000181"},
		{name: "spaces around digits", input: " 529 982 247 25 ", want: "52998224725"},
		{name: "too short", input: "1234567890", wantErr: true},
		{name: "between cpf and cnpj", input: "123456789012", wantErr: true},
		{name: "too long", input: "112223330001812", wantErr: true},
		{name: "letters only", input: "not-a-tax-id", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTaxID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
