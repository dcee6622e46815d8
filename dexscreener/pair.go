package dexscreener

import (
	"sort"
	"strconv"
	"strings"

	"capwatch/core"
)

// looseFloat tolerates the numeric fields of DexScreener payloads, which show
// up as numbers, numeric strings, or null. Anything unparseable stays absent
// instead of failing the whole response.
type looseFloat struct {
	value *float64
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	f.value = &v
	return nil
}

// Ptr returns the parsed value, nil when absent
func (f looseFloat) Ptr() *float64 {
	return f.value
}

// Or returns the parsed value or def when absent
func (f looseFloat) Or(def float64) float64 {
	if f.value == nil {
		return def
	}
	return *f.value
}

// TokenRef identifies one side of a trading pair
type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity holds the pool liquidity figures of a pair
type Liquidity struct {
	USD looseFloat `json:"usd"`
}

// Volume holds the traded volume figures of a pair
type Volume struct {
	H24 looseFloat `json:"h24"`
}

// Pair is one exchange listing for a token as reported by DexScreener
type Pair struct {
	ChainID    string     `json:"chainId"`
	DexID      string     `json:"dexId"`
	URL        string     `json:"url"`
	BaseToken  TokenRef   `json:"baseToken"`
	QuoteToken TokenRef   `json:"quoteToken"`
	PriceUSD   looseFloat `json:"priceUsd"`
	MarketCap  looseFloat `json:"marketCap"`
	FDV        looseFloat `json:"fdv"`
	Liquidity  Liquidity  `json:"liquidity"`
	Volume     Volume     `json:"volume"`
}

// tokensResponse is the body of GET {base}/tokens/{contract}
type tokensResponse struct {
	Pairs []Pair `json:"pairs"`
}

// SelectBest picks the most liquid pair: descending by liquidity in USD, then
// by 24h volume, absent values counting as zero. The sort is stable, so
// identical inputs always select the same pair.
func SelectBest(pairs []Pair) *Pair {
	if len(pairs) == 0 {
		return nil
	}

	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)

	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := sorted[i].Liquidity.USD.Or(0), sorted[j].Liquidity.USD.Or(0)
		if li != lj {
			return li > lj
		}
		return sorted[i].Volume.H24.Or(0) > sorted[j].Volume.H24.Or(0)
	})

	return &sorted[0]
}

// Normalize extracts the canonical stats record from a pair. Market cap falls
// back to the fully diluted valuation when absent.
func (p *Pair) Normalize(contract string) core.PriceObservation {
	marketCap := p.MarketCap.Ptr()
	if marketCap == nil {
		marketCap = p.FDV.Ptr()
	}

	return core.PriceObservation{
		Contract:     contract,
		MarketCap:    marketCap,
		PairURL:      p.URL,
		ChainID:      p.ChainID,
		DexID:        p.DexID,
		BaseSymbol:   p.BaseToken.Symbol,
		BaseAddress:  p.BaseToken.Address,
		QuoteSymbol:  p.QuoteToken.Symbol,
		PriceUSD:     p.PriceUSD.Ptr(),
		FDV:          p.FDV.Ptr(),
		LiquidityUSD: p.Liquidity.USD.Ptr(),
		VolumeH24:    p.Volume.H24.Ptr(),
	}
}
