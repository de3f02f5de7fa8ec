package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"

	"ScalpinMonitor/internal/model"
)

// BinanceClient implements Client on top of the go-binance SDK.
type BinanceClient struct {
	api *binance.Client

	mu     sync.Mutex
	byPair map[string]binanceMarket // "BASE/QUOTE" -> market
	bySym  map[string]string        // "ETHUSDT" -> "ETH/USDT"
	loaded bool
}

type binanceMarket struct {
	symbol    string
	base      string
	quote     string
	minCost   float64
	minAmount float64
}

// NewBinanceClient creates a Binance adapter with optional proxy support.
func NewBinanceClient(creds Credentials, proxy string, timeout time.Duration) *BinanceClient {
	api := binance.NewClient(creds.Key, creds.Secret)
	api.HTTPClient = newHTTPClient(proxy, timeout)
	return &BinanceClient{
		api:    api,
		byPair: make(map[string]binanceMarket),
		bySym:  make(map[string]string),
	}
}

func (b *BinanceClient) Name() string { return "binance" }

// LoadMarkets fetches exchangeInfo once and indexes the trading symbols with
// their minimum order filters.
func (b *BinanceClient) LoadMarkets(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}

	info, err := b.api.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return fmt.Errorf("binance exchangeInfo: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		m := binanceMarket{symbol: s.Symbol, base: s.BaseAsset, quote: s.QuoteAsset}
		for _, f := range s.Filters {
			switch f["filterType"] {
			case "NOTIONAL", "MIN_NOTIONAL":
				m.minCost = filterFloat(f, "minNotional")
			case "LOT_SIZE":
				m.minAmount = filterFloat(f, "minQty")
			}
		}
		key := model.PairKey(m.base, m.quote)
		b.byPair[key] = m
		b.bySym[m.symbol] = key
	}
	b.loaded = true
	return nil
}

func filterFloat(f map[string]interface{}, key string) float64 {
	s, ok := f[key].(string)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FetchBalances returns free non-zero spot balances.
func (b *BinanceClient) FetchBalances(ctx context.Context) (map[string]float64, error) {
	acct, err := b.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance account: %w", err)
	}
	out := make(map[string]float64)
	for _, bal := range acct.Balances {
		free, err := strconv.ParseFloat(bal.Free, 64)
		if err != nil || free <= 0 {
			continue
		}
		out[bal.Asset] = free
	}
	return out, nil
}

// FetchTickers uses the bulk book-ticker and price endpoints; the pairs hint
// is ignored since one request covers every symbol. Requires markets for the
// symbol -> pair mapping.
func (b *BinanceClient) FetchTickers(ctx context.Context, _ []string) (model.TickerBook, error) {
	if err := b.LoadMarkets(ctx); err != nil {
		return nil, err
	}

	books, err := b.api.NewListBookTickersService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance bookTickers: %w", err)
	}
	lasts := make(map[string]float64)
	if prices, err := b.api.NewListPricesService().Do(ctx); err == nil {
		for _, p := range prices {
			if v, err := strconv.ParseFloat(p.Price, 64); err == nil {
				lasts[p.Symbol] = v
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	book := make(model.TickerBook, len(books))
	for _, t := range books {
		pair, ok := b.bySym[t.Symbol]
		if !ok {
			continue
		}
		bid, _ := strconv.ParseFloat(t.BidPrice, 64)
		ask, _ := strconv.ParseFloat(t.AskPrice, 64)
		last := lasts[t.Symbol]
		if bid <= 0 && ask <= 0 && last <= 0 {
			continue
		}
		book[pair] = model.Ticker{Bid: bid, Ask: ask, Last: last}
	}
	return book, nil
}

// MarketLimits consults the cached exchangeInfo filters.
func (b *BinanceClient) MarketLimits(base, quote string) (model.MarketLimit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.byPair[model.PairKey(base, quote)]; ok {
		return model.MarketLimit{
			Base: base, Quote: quote,
			MinCost: m.minCost, MinAmount: m.minAmount,
		}, true
	}
	if m, ok := b.byPair[model.PairKey(quote, base)]; ok {
		return model.MarketLimit{
			Base: quote, Quote: base,
			MinCost: m.minCost, MinAmount: m.minAmount,
			Inverted: true,
		}, true
	}
	return model.MarketLimit{}, false
}
