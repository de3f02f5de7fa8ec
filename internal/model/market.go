package model

// Ticker holds the best quotes for one market. Zero fields mean the venue
// did not report that side.
type Ticker struct {
	Bid  float64
	Ask  float64
	Last float64
}

// TickerBook is a snapshot of tickers keyed by "BASE/QUOTE".
type TickerBook map[string]Ticker

// PairKey builds the canonical book key for a market.
func PairKey(base, quote string) string {
	return base + "/" + quote
}

// MarketLimit describes the minimum order constraints of one market.
// Inverted means the venue lists the market as quote/base, so MinAmount is
// expressed in quote (anchor) units rather than base units.
type MarketLimit struct {
	Base      string
	Quote     string
	MinCost   float64
	MinAmount float64
	Inverted  bool
}
