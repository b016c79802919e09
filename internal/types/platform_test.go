package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
		ok   bool
	}{
		{"hotmart", PlatformHotmart, true},
		{"  Kiwify ", PlatformKiwify, true},
		{"Cart Panda", PlatformCartPanda, true},
		{"cartpanda", PlatformCartPanda, true},
		{"perfect-pay", PlatformPerfectPay, true},
		{"PERFECT_PAY", PlatformPerfectPay, true},
		{"gumroad", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePlatform(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
