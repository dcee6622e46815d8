package core

// Observation error reasons reported by the price data client
const (
	ObservationErrHTTP    = "http_or_parse_error"
	ObservationErrNoPairs = "no_pairs"
)

// PriceObservation is the normalized result of one price fetch for one
// contract. It lives for a single poll cycle and is never persisted.
type PriceObservation struct {
	Contract string

	// MarketCap is nil when the fetch failed or no usable figure was found
	MarketCap *float64

	// Err holds the degradation reason when MarketCap is nil
	Err string

	PairURL     string
	ChainID     string
	DexID       string
	BaseSymbol  string
	BaseAddress string
	QuoteSymbol string

	PriceUSD     *float64
	FDV          *float64
	LiquidityUSD *float64
	VolumeH24    *float64
}

// Usable reports whether the observation carries a market cap figure
func (o PriceObservation) Usable() bool {
	return o.MarketCap != nil
}

// FailedObservation builds the degraded result for a contract whose data
// could not be fetched or parsed
func FailedObservation(contract, reason string) PriceObservation {
	return PriceObservation{Contract: contract, Err: reason}
}
