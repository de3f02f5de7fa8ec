// Package rates converts asset amounts into a common anchor currency using
// the best quote available in a ticker snapshot. Prices are trade-friendly:
// bid when selling the asset, inverted ask when the market is listed the
// other way around, with last as the fallback on both.
package rates

import "ScalpinMonitor/internal/model"

// Convert returns the anchor rate for one unit of asset. When no direct or
// inverse market exists, a single hop through the bridge currency is tried.
// The second return value is false when no route exists at all.
func Convert(book model.TickerBook, asset, anchor, bridge string) (float64, bool) {
	if asset == anchor {
		return 1.0, true
	}
	if r, ok := directRate(book, asset, anchor); ok {
		return r, true
	}
	if asset == bridge || anchor == bridge {
		return 0, false
	}
	leg1, ok := directRate(book, asset, bridge)
	if !ok {
		return 0, false
	}
	leg2, ok := directRate(book, bridge, anchor)
	if !ok {
		return 0, false
	}
	return leg1 * leg2, true
}

// directRate prices one unit of from in to units using a single market,
// trying from/to first and the inverse to/from second.
func directRate(book model.TickerBook, from, to string) (float64, bool) {
	if t, ok := book[model.PairKey(from, to)]; ok {
		if t.Bid > 0 {
			return t.Bid, true
		}
		if t.Last > 0 {
			return t.Last, true
		}
	}
	if t, ok := book[model.PairKey(to, from)]; ok {
		if t.Ask > 0 {
			return 1 / t.Ask, true
		}
		if t.Last > 0 {
			return 1 / t.Last, true
		}
	}
	return 0, false
}

// PricesInAnchor converts every asset that has a route; assets without one
// are absent from the result, never zeroed.
func PricesInAnchor(book model.TickerBook, assets []string, anchor, bridge string) map[string]float64 {
	out := make(map[string]float64, len(assets))
	for _, a := range assets {
		if r, ok := Convert(book, a, anchor, bridge); ok {
			out[a] = r
		}
	}
	return out
}

// CandidatePairs lists every market that Convert may consult for the given
// assets, so venues without a bulk ticker endpoint can bound their requests.
func CandidatePairs(assets []string, anchor, bridge string) []string {
	seen := make(map[string]bool)
	pairs := make([]string, 0, len(assets)*4+2)
	add := func(base, quote string) {
		if base == quote {
			return
		}
		k := model.PairKey(base, quote)
		if !seen[k] {
			seen[k] = true
			pairs = append(pairs, k)
		}
	}
	for _, a := range assets {
		if a == anchor {
			continue
		}
		add(a, anchor)
		add(anchor, a)
		add(a, bridge)
		add(bridge, a)
	}
	add(bridge, anchor)
	add(anchor, bridge)
	return pairs
}
