// Package exchange isolates venue-specific quirks (id aliasing, credential
// shape, endpoint layout) behind one small Client contract.
package exchange

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ScalpinMonitor/internal/model"
)

// Client is the uniform contract every venue adapter implements. All
// fetch methods are pure reads; failures must be returned, never panic.
type Client interface {
	Name() string
	// LoadMarkets fetches market metadata once and caches it. A failure is
	// not fatal to callers: limit lookups just report no market known.
	LoadMarkets(ctx context.Context) error
	// FetchBalances returns free, non-zero balances per asset.
	FetchBalances(ctx context.Context) (map[string]float64, error)
	// FetchTickers returns a quote snapshot. pairs bounds the request on
	// venues without a bulk endpoint; venues with one may ignore it.
	FetchTickers(ctx context.Context, pairs []string) (model.TickerBook, error)
	// MarketLimits looks up base/quote or quote/base in the cached metadata.
	MarketLimits(base, quote string) (model.MarketLimit, bool)
}

// aliases maps legacy and alternate venue names to the canonical id used as
// the map key everywhere else.
var aliases = map[string]string{
	"gateio":      "gate",
	"gate.io":     "gate",
	"okex":        "okx",
	"huobi":       "htx",
	"coinbasepro": "coinbase",
}

// Normalize returns the canonical id for a raw exchange name.
func Normalize(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := aliases[id]; ok {
		return canonical
	}
	return id
}

// Credentials holds the API key material for one venue.
type Credentials struct {
	Key      string
	Secret   string
	Password string
}

// CredentialsFromEnv reads {EXCHANGE}_API_KEY / _API_SECRET / _API_PASSWORD
// for the given canonical id.
func CredentialsFromEnv(id string) Credentials {
	prefix := strings.ToUpper(id)
	return Credentials{
		Key:      os.Getenv(prefix + "_API_KEY"),
		Secret:   os.Getenv(prefix + "_API_SECRET"),
		Password: os.Getenv(prefix + "_API_PASSWORD"),
	}
}

// Missing reports whether the key pair needed for private calls is absent.
func (c Credentials) Missing() bool {
	return c.Key == "" || c.Secret == ""
}

// NewClient builds the adapter for the given exchange name. Missing
// credentials are a logged diagnostic, not an error: the adapter still
// serves public endpoints.
func NewClient(name, proxy string, timeout time.Duration) (Client, error) {
	id := Normalize(name)
	creds := CredentialsFromEnv(id)
	if creds.Missing() {
		log.Printf("[WARN] %s: no API credentials in environment, private endpoints disabled", id)
	}
	switch id {
	case "binance":
		return NewBinanceClient(creds, proxy, timeout), nil
	case "kraken":
		return NewKrakenClient(creds, proxy, timeout), nil
	default:
		return nil, fmt.Errorf("unknown exchange: %s", id)
	}
}

// newHTTPClient builds the shared http.Client shape with optional proxy.
func newHTTPClient(proxy string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxy != "" {
		if u, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
