package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want []string
	}{
		{
			name: "complete",
			in:   Settings{IssuerURL: "https://idp", ClientID: "app", Origin: "https://app"},
			want: []string{},
		},
		{
			name: "empty",
			in:   Settings{},
			want: []string{"issuerUrl", "clientId", "origin"},
		},
		{
			name: "missing origin",
			in:   Settings{IssuerURL: "https://idp", ClientID: "app"},
			want: []string{"origin"},
		},
		{
			name: "missing client",
			in:   Settings{IssuerURL: "https://idp", Origin: "https://app"},
			want: []string{"clientId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSettings(tt.in))
		})
	}
}
