package exchange

import (
	"context"
	"sync"

	"ScalpinMonitor/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
// TickerScript, when set, replaces Tickers tick by tick: call n uses entry
// min(n, len-1), so the last snapshot repeats once the script runs out.
type MockClient struct {
	ID           string
	Balances     map[string]float64
	Tickers      model.TickerBook
	TickerScript []model.TickerBook
	Limits       map[string]model.MarketLimit // keyed "BASE/QUOTE"

	BalancesErr error
	TickersErr  error
	MarketsErr  error

	mu    sync.Mutex
	calls int
}

func (m *MockClient) Name() string {
	if m.ID == "" {
		return "mock"
	}
	return m.ID
}

func (m *MockClient) LoadMarkets(_ context.Context) error { return m.MarketsErr }

func (m *MockClient) FetchBalances(_ context.Context) (map[string]float64, error) {
	if m.BalancesErr != nil {
		return nil, m.BalancesErr
	}
	out := make(map[string]float64, len(m.Balances))
	for k, v := range m.Balances {
		out[k] = v
	}
	return out, nil
}

func (m *MockClient) FetchTickers(_ context.Context, _ []string) (model.TickerBook, error) {
	if m.TickersErr != nil {
		return nil, m.TickersErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.TickerScript) > 0 {
		i := m.calls
		if i >= len(m.TickerScript) {
			i = len(m.TickerScript) - 1
		}
		m.calls++
		return m.TickerScript[i], nil
	}
	return m.Tickers, nil
}

func (m *MockClient) MarketLimits(base, quote string) (model.MarketLimit, bool) {
	if lim, ok := m.Limits[model.PairKey(base, quote)]; ok {
		return lim, true
	}
	if lim, ok := m.Limits[model.PairKey(quote, base)]; ok {
		lim.Inverted = true
		return lim, true
	}
	return model.MarketLimit{}, false
}
