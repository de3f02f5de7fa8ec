package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ScalpinMonitor/internal/model"
)

// KrakenClient implements Client against the Kraken REST API. Kraken has no
// bulk ticker endpoint, so FetchTickers requests only the hinted pairs.
type KrakenClient struct {
	httpClient *http.Client
	creds      Credentials
	// BaseURL is overridable for tests.
	BaseURL string

	mu     sync.Mutex
	byPair map[string]krakenMarket // "BASE/QUOTE" -> market
	byRest map[string]string       // REST pair name -> "BASE/QUOTE"
	loaded bool
	nonce  int64
}

type krakenMarket struct {
	restName  string
	base      string
	quote     string
	minCost   float64
	minAmount float64
}

// NewKrakenClient creates a Kraken adapter with optional proxy support.
func NewKrakenClient(creds Credentials, proxy string, timeout time.Duration) *KrakenClient {
	return &KrakenClient{
		httpClient: newHTTPClient(proxy, timeout),
		creds:      creds,
		BaseURL:    "https://api.kraken.com",
		byPair:     make(map[string]krakenMarket),
		byRest:     make(map[string]string),
	}
}

func (k *KrakenClient) Name() string { return "kraken" }

// krakenAssetAliases maps Kraken's legacy asset codes to common symbols.
var krakenAssetAliases = map[string]string{
	"XBT": "BTC", "XXBT": "BTC",
	"XDG": "DOGE", "XXDG": "DOGE",
	"XETH": "ETH", "XLTC": "LTC", "XXRP": "XRP", "XXLM": "XLM", "XXMR": "XMR",
	"ZUSD": "USD", "ZEUR": "EUR", "ZGBP": "GBP", "ZJPY": "JPY", "ZCAD": "CAD", "ZAUD": "AUD",
}

// normalizeKrakenAsset maps a Kraken asset code to its common symbol.
func normalizeKrakenAsset(code string) string {
	// Staking and yield variants like "ETH2.S" or "USDT.F" trade as the base asset.
	if i := strings.IndexByte(code, '.'); i > 0 {
		code = code[:i]
	}
	code = strings.ToUpper(code)
	if alias, ok := krakenAssetAliases[code]; ok {
		return alias
	}
	return code
}

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (k *KrakenClient) public(ctx context.Context, path string, query url.Values, result interface{}) error {
	u := k.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return k.do(req, result)
}

func (k *KrakenClient) private(ctx context.Context, path string, form url.Values, result interface{}) error {
	if k.creds.Missing() {
		return fmt.Errorf("kraken: no credentials for private call %s", path)
	}
	k.mu.Lock()
	n := time.Now().UnixMilli()
	if n <= k.nonce {
		n = k.nonce + 1
	}
	k.nonce = n
	k.mu.Unlock()

	form.Set("nonce", strconv.FormatInt(n, 10))
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	sign, err := k.sign(path, form.Get("nonce"), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", k.creds.Key)
	req.Header.Set("API-Sign", sign)
	return k.do(req, result)
}

// sign computes API-Sign = base64(HMAC-SHA512(secret, path + SHA256(nonce + body))).
func (k *KrakenClient) sign(path, nonce, body string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(k.creds.Secret)
	if err != nil {
		return "", fmt.Errorf("kraken: decode secret: %w", err)
	}
	digest := sha256.Sum256([]byte(nonce + body))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (k *KrakenClient) do(req *http.Request, result interface{}) error {
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kraken fetch: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kraken read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kraken: status %d, body: %s", resp.StatusCode, string(data))
	}
	var env krakenEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("kraken decode: %w", err)
	}
	if len(env.Error) > 0 {
		return fmt.Errorf("kraken api error: %s", strings.Join(env.Error, ", "))
	}
	return json.Unmarshal(env.Result, result)
}

// LoadMarkets fetches AssetPairs once and indexes them by normalized pair.
func (k *KrakenClient) LoadMarkets(ctx context.Context) error {
	k.mu.Lock()
	if k.loaded {
		k.mu.Unlock()
		return nil
	}
	k.mu.Unlock()

	var pairs map[string]struct {
		WSName   string `json:"wsname"`
		Base     string `json:"base"`
		Quote    string `json:"quote"`
		OrderMin string `json:"ordermin"`
		CostMin  string `json:"costmin"`
	}
	if err := k.public(ctx, "/0/public/AssetPairs", nil, &pairs); err != nil {
		return fmt.Errorf("kraken AssetPairs: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for restName, p := range pairs {
		base := normalizeKrakenAsset(p.Base)
		quote := normalizeKrakenAsset(p.Quote)
		m := krakenMarket{restName: restName, base: base, quote: quote}
		m.minAmount, _ = strconv.ParseFloat(p.OrderMin, 64)
		m.minCost, _ = strconv.ParseFloat(p.CostMin, 64)
		key := model.PairKey(base, quote)
		k.byPair[key] = m
		k.byRest[restName] = key
	}
	k.loaded = true
	return nil
}

// FetchBalances calls the private Balance endpoint and normalizes Kraken's
// legacy asset codes.
func (k *KrakenClient) FetchBalances(ctx context.Context) (map[string]float64, error) {
	var raw map[string]string
	if err := k.private(ctx, "/0/private/Balance", url.Values{}, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for code, s := range raw {
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil || amount <= 0 {
			continue
		}
		// Staking variants fold into the same asset bucket.
		out[normalizeKrakenAsset(code)] += amount
	}
	return out, nil
}

// FetchTickers requests only the hinted pairs that exist on the venue.
func (k *KrakenClient) FetchTickers(ctx context.Context, pairs []string) (model.TickerBook, error) {
	if err := k.LoadMarkets(ctx); err != nil {
		return nil, err
	}

	k.mu.Lock()
	restNames := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if m, ok := k.byPair[p]; ok {
			restNames = append(restNames, m.restName)
		}
	}
	k.mu.Unlock()
	if len(restNames) == 0 {
		return model.TickerBook{}, nil
	}

	var raw map[string]struct {
		A []string `json:"a"` // ask [price, wholeLotVolume, lotVolume]
		B []string `json:"b"` // bid
		C []string `json:"c"` // last trade [price, volume]
	}
	q := url.Values{"pair": {strings.Join(restNames, ",")}}
	if err := k.public(ctx, "/0/public/Ticker", q, &raw); err != nil {
		return nil, fmt.Errorf("kraken Ticker: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	book := make(model.TickerBook, len(raw))
	for restName, t := range raw {
		pair, ok := k.byRest[restName]
		if !ok {
			continue
		}
		tick := model.Ticker{
			Bid:  firstFloat(t.B),
			Ask:  firstFloat(t.A),
			Last: firstFloat(t.C),
		}
		if tick.Bid <= 0 && tick.Ask <= 0 && tick.Last <= 0 {
			continue
		}
		book[pair] = tick
	}
	return book, nil
}

func firstFloat(xs []string) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(xs[0], 64)
	if err != nil {
		return 0
	}
	return v
}

// MarketLimits consults the cached AssetPairs metadata.
func (k *KrakenClient) MarketLimits(base, quote string) (model.MarketLimit, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if m, ok := k.byPair[model.PairKey(base, quote)]; ok {
		return model.MarketLimit{
			Base: base, Quote: quote,
			MinCost: m.minCost, MinAmount: m.minAmount,
		}, true
	}
	if m, ok := k.byPair[model.PairKey(quote, base)]; ok {
		return model.MarketLimit{
			Base: quote, Quote: base,
			MinCost: m.minCost, MinAmount: m.minAmount,
			Inverted: true,
		}, true
	}
	return model.MarketLimit{}, false
}
