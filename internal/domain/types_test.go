package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

func TestNanoToTon(t *testing.T) {
	tests := []struct {
		name     string
		nano     uint64
		expected float64
	}{
		{name: "one ton", nano: 1_000_000_000, expected: 1.0},
		{name: "fraction", nano: 1_500_000_000, expected: 1.5},
		{name: "rounds to 6 places", nano: 1_234_567_891, expected: 1.234568},
		{name: "zero", nano: 0, expected: 0},
		{name: "sub-nano dust", nano: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, domain.NanoToTon(tt.nano), 1e-9)
		})
	}
}

func TestJettonUnits(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		expected float64
	}{
		{name: "default decimals", raw: "1000000000", decimals: 9, expected: 1.0},
		{name: "six decimals", raw: "2500000", decimals: 6, expected: 2.5},
		{name: "zero decimals", raw: "42", decimals: 0, expected: 42},
		{name: "empty", raw: "", decimals: 9, expected: 0},
		{name: "garbage", raw: "abc", decimals: 9, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, domain.JettonUnits(tt.raw, tt.decimals), 1e-9)
		})
	}
}

func TestActionDetails_OpcodeValue(t *testing.T) {
	tests := []struct {
		name     string
		opcode   string
		expected uint32
		ok       bool
	}{
		{name: "hex", opcode: "0x5052495a", expected: domain.OpPrize, ok: true},
		{name: "hex uppercase prefix", opcode: "0X52454646", expected: domain.OpReferral, ok: true},
		{name: "decimal", opcode: "1347570010", expected: domain.OpPrize, ok: true},
		{name: "empty", opcode: "", ok: false},
		{name: "garbage", opcode: "xyz", ok: false},
		{name: "overflow", opcode: "0xffffffffff", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &domain.ActionDetails{Opcode: tt.opcode}
			got, ok := d.OpcodeValue()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestActionDetails_NanoValue(t *testing.T) {
	assert.Equal(t, uint64(1_000_000_000), (&domain.ActionDetails{Value: "1000000000"}).NanoValue())
	assert.Zero(t, (&domain.ActionDetails{Value: ""}).NanoValue())
	assert.Zero(t, (&domain.ActionDetails{Value: "-5"}).NanoValue())
	assert.Zero(t, (&domain.ActionDetails{Value: "12.5"}).NanoValue())
}

func TestActionDetails_TrimmedComment(t *testing.T) {
	comment := "  x7  "
	assert.Equal(t, "x7", (&domain.ActionDetails{Comment: &comment}).TrimmedComment())
	assert.Empty(t, (&domain.ActionDetails{}).TrimmedComment())

	var nilDetails *domain.ActionDetails
	assert.Empty(t, nilDetails.TrimmedComment())
}

func TestTokenMetadata_Lookup(t *testing.T) {
	meta := domain.TokenMetadata{
		"0:master": {
			IsIndexed: true,
			TokenInfo: []domain.TokenInfo{
				{Type: "jetton_masters", Symbol: "USDT", Extra: &domain.TokenExtra{Decimals: "6"}},
			},
		},
		"0:partial": {
			IsIndexed: true,
			TokenInfo: []domain.TokenInfo{{Type: "jetton_masters"}},
		},
	}

	symbol, decimals := meta.Lookup("0:master")
	assert.Equal(t, "USDT", symbol)
	assert.Equal(t, 6, decimals)

	// Partially described entries fall back per field
	symbol, decimals = meta.Lookup("0:partial")
	assert.Equal(t, domain.DefaultJettonSymbol, symbol)
	assert.Equal(t, domain.DefaultJettonDecimals, decimals)

	// Unknown asset falls back entirely
	symbol, decimals = meta.Lookup("0:unknown")
	assert.Equal(t, domain.DefaultJettonSymbol, symbol)
	assert.Equal(t, domain.DefaultJettonDecimals, decimals)
}

func TestLotteryTransaction_HasSignal(t *testing.T) {
	assert.False(t, (&domain.LotteryTransaction{}).HasSignal())
	assert.True(t, (&domain.LotteryTransaction{Purchase: &domain.Purchase{}}).HasSignal())
	assert.True(t, (&domain.LotteryTransaction{Prize: &domain.Prize{}}).HasSignal())
	assert.True(t, (&domain.LotteryTransaction{Referral: &domain.Referral{}}).HasSignal())
	assert.True(t, (&domain.LotteryTransaction{Mint: &domain.Mint{}}).HasSignal())
}

func TestPrizeTiers(t *testing.T) {
	// Tier codes map to their USD values
	assert.Equal(t, 1, domain.PrizeTiers["x1"])
	assert.Equal(t, 77, domain.PrizeTiers["x77"])
	assert.Equal(t, domain.PrizeTiers["jp"], domain.PrizeTiers["jackpot"])
}
