package dexscreener

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func pairWith(liquidity, volume *float64) Pair {
	return Pair{
		Liquidity: Liquidity{USD: looseFloat{value: liquidity}},
		Volume:    Volume{H24: looseFloat{value: volume}},
	}
}

func TestSelectBest_LiquidityWinsOverVolume(t *testing.T) {
	pairs := []Pair{
		pairWith(floatPtr(100), floatPtr(999)),
		pairWith(floatPtr(200), floatPtr(1)),
	}

	best := SelectBest(pairs)
	require.NotNil(t, best)
	require.Equal(t, 200.0, best.Liquidity.USD.Or(0))
}

func TestSelectBest_VolumeBreaksTies(t *testing.T) {
	pairs := []Pair{
		pairWith(floatPtr(100), floatPtr(10)),
		pairWith(floatPtr(100), floatPtr(50)),
	}

	best := SelectBest(pairs)
	require.Equal(t, 50.0, best.Volume.H24.Or(0))
}

func TestSelectBest_MissingValuesCountAsZero(t *testing.T) {
	pairs := []Pair{
		pairWith(nil, nil),
		pairWith(floatPtr(1), nil),
	}

	best := SelectBest(pairs)
	require.Equal(t, 1.0, best.Liquidity.USD.Or(0))
}

func TestSelectBest_Empty(t *testing.T) {
	require.Nil(t, SelectBest(nil))
	require.Nil(t, SelectBest([]Pair{}))
}

func TestSelectBest_StableForIdenticalInputs(t *testing.T) {
	pairs := []Pair{
		{ChainID: "first", Liquidity: Liquidity{USD: looseFloat{value: floatPtr(100)}}},
		{ChainID: "second", Liquidity: Liquidity{USD: looseFloat{value: floatPtr(100)}}},
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, "first", SelectBest(pairs).ChainID)
	}
}

func TestNormalize_FDVFallback(t *testing.T) {
	var pair Pair
	body := `{"url":"https://dexscreener.com/solana/abc","chainId":"solana","fdv":50000}`
	require.NoError(t, json.Unmarshal([]byte(body), &pair))

	observation := pair.Normalize("abc")
	require.NotNil(t, observation.MarketCap)
	require.Equal(t, 50000.0, *observation.MarketCap)
	require.Equal(t, "solana", observation.ChainID)
}

func TestNormalize_MarketCapPreferredOverFDV(t *testing.T) {
	var pair Pair
	body := `{"marketCap":120000,"fdv":50000}`
	require.NoError(t, json.Unmarshal([]byte(body), &pair))

	observation := pair.Normalize("abc")
	require.Equal(t, 120000.0, *observation.MarketCap)
	require.Equal(t, 50000.0, *observation.FDV)
}

func TestNormalize_FullRecord(t *testing.T) {
	var pair Pair
	body := `{
		"chainId": "solana",
		"dexId": "raydium",
		"url": "https://dexscreener.com/solana/pool",
		"baseToken": {"address": "base-addr", "symbol": "TKN"},
		"quoteToken": {"symbol": "SOL"},
		"priceUsd": "0.00312",
		"marketCap": 1200000,
		"liquidity": {"usd": 45000.5},
		"volume": {"h24": 98000}
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &pair))

	observation := pair.Normalize("base-addr")
	require.Equal(t, "raydium", observation.DexID)
	require.Equal(t, "TKN", observation.BaseSymbol)
	require.Equal(t, "SOL", observation.QuoteSymbol)
	require.Equal(t, 0.00312, *observation.PriceUSD)
	require.Equal(t, 45000.5, *observation.LiquidityUSD)
	require.Equal(t, 98000.0, *observation.VolumeH24)
	require.True(t, observation.Usable())
}

func TestLooseFloat_MalformedFieldsStayAbsent(t *testing.T) {
	var pair Pair
	// priceUsd is garbage, marketCap is null: neither may fail the decode
	body := `{"priceUsd":"not-a-number","marketCap":null,"fdv":"1.5"}`
	require.NoError(t, json.Unmarshal([]byte(body), &pair))

	require.Nil(t, pair.PriceUSD.Ptr())
	require.Nil(t, pair.MarketCap.Ptr())
	require.Equal(t, 1.5, pair.FDV.Or(0))
}
