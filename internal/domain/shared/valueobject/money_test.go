package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    Currency
		wantErr bool
	}{
		{"empty defaults to USD", "", USD, false},
		{"lowercase accepted", "eur", EUR, false},
		{"padded accepted", " inr ", INR, false},
		{"unknown rejected", "XYZ1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRound_HalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"31.025", "31.02"},
		{"31.035", "31.04"},
		{"425", "425"},
		{"0.005", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestApplyRate(t *testing.T) {
	got := ApplyRate(decimal.NewFromInt(1070), decimal.RequireFromString("0.029"))
	assert.True(t, got.Equal(decimal.RequireFromString("31.03")), "got %s", got)
}

func TestSumAndNonNegative(t *testing.T) {
	assert.True(t, Sum(decimal.NewFromInt(1), decimal.NewFromInt(2)).Equal(decimal.NewFromInt(3)))
	assert.True(t, Sum().IsZero())
	assert.ErrorIs(t, RequireNonNegative(decimal.NewFromInt(-1)), ErrNegativeAmount)
	assert.NoError(t, RequireNonNegative(decimal.Zero))
}

func TestLocation(t *testing.T) {
	_, err := NewLocation("", "India")
	assert.Error(t, err)

	loc, err := NewLocation("Hamburg", "Germany")
	require.NoError(t, err)
	loc.Address = "Am Sandtorkai 1"
	assert.Equal(t, Location{City: "Hamburg", Country: "Germany"}, loc.Public())
	assert.Equal(t, "Hamburg, Germany", loc.String())
	assert.False(t, loc.IsZero())
}
