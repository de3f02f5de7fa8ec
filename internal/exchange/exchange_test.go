package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ScalpinMonitor/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"binance", "binance"},
		{"Binance", "binance"},
		{"gateio", "gate"},
		{"gate.io", "gate"},
		{"okex", "okx"},
		{"huobi", "htx"},
		{" kraken ", "kraken"},
		{"somevenue", "somevenue"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")
	creds := CredentialsFromEnv("binance")
	if creds.Key != "k" || creds.Secret != "s" {
		t.Errorf("unexpected creds: %+v", creds)
	}
	if creds.Missing() {
		t.Error("creds with key+secret must not be missing")
	}
	if !CredentialsFromEnv("gate").Missing() {
		t.Error("absent env vars must report missing")
	}
}

func TestNewClient_UnknownExchange(t *testing.T) {
	if _, err := NewClient("hooli", "", time.Second); err == nil {
		t.Error("expected error for unknown exchange")
	}
}

func TestNormalizeKrakenAsset(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"XXBT", "BTC"},
		{"XBT", "BTC"},
		{"ZUSD", "USD"},
		{"XETH", "ETH"},
		{"USDT", "USDT"},
		{"ETH2.S", "ETH2"},
		{"USDT.F", "USDT"},
		{"SOL", "SOL"},
	}
	for _, tt := range tests {
		if got := normalizeKrakenAsset(tt.code); got != tt.want {
			t.Errorf("normalizeKrakenAsset(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func krakenTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/0/public/AssetPairs", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":[],"result":{
			"XETHZUSD":{"wsname":"ETH/USD","base":"XETH","quote":"ZUSD","ordermin":"0.01","costmin":"0.5"},
			"ETHUSDT":{"wsname":"ETH/USDT","base":"XETH","quote":"USDT","ordermin":"0.01","costmin":"0.5"}
		}}`))
	})
	mux.HandleFunc("/0/public/Ticker", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":[],"result":{
			"ETHUSDT":{"a":["3010.0","1","1.0"],"b":["2990.0","1","1.0"],"c":["3000.0","0.1"]}
		}}`))
	})
	return httptest.NewServer(mux)
}

func TestKrakenClient_TickersAndLimits(t *testing.T) {
	srv := krakenTestServer(t)
	defer srv.Close()

	k := NewKrakenClient(Credentials{}, "", 5*time.Second)
	k.BaseURL = srv.URL

	book, err := k.FetchTickers(context.Background(), []string{"ETH/USDT"})
	if err != nil {
		t.Fatal(err)
	}
	tick, ok := book["ETH/USDT"]
	if !ok {
		t.Fatalf("expected ETH/USDT in book, got %v", book)
	}
	if tick.Bid != 2990 || tick.Ask != 3010 || tick.Last != 3000 {
		t.Errorf("unexpected ticker: %+v", tick)
	}

	// Direct orientation.
	lim, ok := k.MarketLimits("ETH", "USDT")
	if !ok || lim.Inverted {
		t.Fatalf("expected direct ETH/USDT limits, got %+v ok=%v", lim, ok)
	}
	if lim.MinAmount != 0.01 || lim.MinCost != 0.5 {
		t.Errorf("unexpected limits: %+v", lim)
	}

	// Inverted orientation: only ETH/USD exists, so USD->ETH flips.
	lim, ok = k.MarketLimits("USD", "ETH")
	if !ok || !lim.Inverted {
		t.Errorf("expected inverted lookup for USD/ETH, got %+v ok=%v", lim, ok)
	}

	if _, ok := k.MarketLimits("BTC", "MXN"); ok {
		t.Error("expected no limits for an unlisted pair")
	}
}

func TestKrakenClient_PrivateWithoutCreds(t *testing.T) {
	k := NewKrakenClient(Credentials{}, "", time.Second)
	if _, err := k.FetchBalances(context.Background()); err == nil {
		t.Error("balance fetch without credentials must fail, not panic")
	}
}

func TestMockClient_TickerScript(t *testing.T) {
	m := &MockClient{
		ID: "binance",
		TickerScript: []model.TickerBook{
			{"ETH/USDT": {Bid: 3000}},
			{"ETH/USDT": {Bid: 3200}},
		},
	}
	b1, _ := m.FetchTickers(context.Background(), nil)
	b2, _ := m.FetchTickers(context.Background(), nil)
	b3, _ := m.FetchTickers(context.Background(), nil)
	if b1["ETH/USDT"].Bid != 3000 || b2["ETH/USDT"].Bid != 3200 {
		t.Errorf("script must advance per call: %v %v", b1, b2)
	}
	if b3["ETH/USDT"].Bid != 3200 {
		t.Errorf("exhausted script must repeat last snapshot, got %v", b3)
	}
}
