package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reversion/pkg/ratelimit"
	"reversion/pkg/retry"
)

// live.go - the Live adapter. Signing follows the venue's Binance-style
// scheme (spec.md §6): header X-MBX-APIKEY, signature = HMAC-SHA256 over
// the canonical query string (parameters in insertion order joined by '&'),
// appended as "&signature=". Request plumbing (pooled transport, retry,
// base-response error envelope) is grounded on bybit.go's sign/doRequest,
// swapped from Bybit's X-BAPI-* header scheme to this one.

// Live is the authenticated REST adapter talking to the venue's production
// or testnet base URL.
type Live struct {
	apiKey    string
	apiSecret string
	baseURL   string

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
}

// NewLive builds a Live adapter. baseURL is the already-resolved
// (testnet-or-production) endpoint; see config.VenueConfig.ActiveBaseURL.
func NewLive(apiKey, apiSecret, baseURL string) *Live {
	return &Live{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		httpClient: GetGlobalHTTPClient().GetClient(),
		// The venue's REST weight limit is generous relative to this
		// bot's order rate; 10 req/s with a burst of 20 comfortably
		// covers leverage-set, balance, position, and order calls
		// without the adapter ever needing to shed load.
		limiter: ratelimit.NewRateLimiter(10, 20),
	}
}

func (l *Live) Name() string { return "live" }

// canonicalQuery builds the insertion-ordered "k=v&k=v" string the
// signature is computed over. Go's map iteration order is randomized, so
// the caller passes ordered pairs rather than a map.
type queryParam struct {
	Key, Value string
}

func canonicalQuery(params []queryParam) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

func (l *Live) sign(query string) string {
	h := hmac.New(sha256.New, []byte(l.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// signedRequest issues a signed request against endpoint with the given
// ordered params, appending timestamp and signature per spec.md §6.
func (l *Live) signedRequest(ctx context.Context, method, endpoint string, params []queryParam) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params = append(params, queryParam{"timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10)})
	query := canonicalQuery(params)
	signature := l.sign(query)
	fullQuery := query + "&signature=" + signature

	var reqURL, reqBody string
	if method == http.MethodGet || method == http.MethodDelete {
		reqURL = l.baseURL + endpoint + "?" + fullQuery
	} else {
		reqURL = l.baseURL + endpoint
		reqBody = fullQuery
	}

	var body []byte
	err := retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(reqBody))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("X-MBX-APIKEY", l.apiKey)
		if reqBody != "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := l.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return retry.Temporary(fmt.Errorf("venue returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			var errResp struct {
				Code int    `json:"code"`
				Msg  string `json:"msg"`
			}
			json.Unmarshal(b, &errResp)
			return retry.Permanent(&ExchangeError{Exchange: "venue", Code: strconv.Itoa(errResp.Code), Message: errResp.Msg})
		}
		body = b
		return nil
	}, retry.NetworkConfig())

	return body, err
}

func (l *Live) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := l.signedRequest(ctx, http.MethodPost, "/fapi/v1/leverage", []queryParam{
		{"symbol", symbol},
		{"leverage", strconv.Itoa(leverage)},
	})
	return err
}

func (l *Live) GetEquity(ctx context.Context) (float64, error) {
	body, err := l.signedRequest(ctx, http.MethodGet, "/fapi/v2/balance", nil)
	if err != nil {
		return 0, err
	}
	var balances []struct {
		Asset   string `json:"asset"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(body, &balances); err != nil {
		return 0, err
	}
	for _, b := range balances {
		if b.Asset == "USDT" {
			v, _ := strconv.ParseFloat(b.Balance, 64)
			return v, nil
		}
	}
	return 0, fmt.Errorf("USDT balance not found in response")
}

func (l *Live) GetPositions(ctx context.Context) ([]AdapterPosition, error) {
	body, err := l.signedRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Symbol           string `json:"symbol"`
		PositionAmt      string `json:"positionAmt"`
		EntryPrice       string `json:"entryPrice"`
		UnrealizedProfit string `json:"unRealizedProfit"`
		Leverage         string `json:"leverage"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	positions := make([]AdapterPosition, 0, len(raw))
	for _, p := range raw {
		qty, _ := strconv.ParseFloat(p.PositionAmt, 64)
		if qty == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(p.EntryPrice, 64)
		pnl, _ := strconv.ParseFloat(p.UnrealizedProfit, 64)
		lev, _ := strconv.Atoi(p.Leverage)
		positions = append(positions, AdapterPosition{
			Symbol:        p.Symbol,
			SignedQty:     qty,
			EntryPrice:    entry,
			UnrealizedPnl: pnl,
			Leverage:      lev,
		})
	}
	return positions, nil
}

func (l *Live) MarketOrder(ctx context.Context, symbol string, side AdapterSide, qty float64) (OrderResult, error) {
	start := time.Now()
	body, err := l.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", []queryParam{
		{"symbol", symbol},
		{"side", string(side)},
		{"type", "MARKET"},
		{"quantity", strconv.FormatFloat(qty, 'f', -1, 64)},
	})
	if err != nil {
		return OrderResult{Status: OrderRejected, LatencyMs: elapsedMs(start)}, err
	}
	return l.parseOrderResponse(body, start)
}

func (l *Live) LimitIOC(ctx context.Context, symbol string, side AdapterSide, qty, price float64) (OrderResult, error) {
	start := time.Now()
	body, err := l.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", []queryParam{
		{"symbol", symbol},
		{"side", string(side)},
		{"type", "LIMIT"},
		{"timeInForce", "IOC"},
		{"quantity", strconv.FormatFloat(qty, 'f', -1, 64)},
		{"price", strconv.FormatFloat(price, 'f', -1, 64)},
	})
	if err != nil {
		return OrderResult{Status: OrderRejected, LatencyMs: elapsedMs(start)}, err
	}
	return l.parseOrderResponse(body, start)
}

func (l *Live) parseOrderResponse(body []byte, start time.Time) (OrderResult, error) {
	var resp struct {
		Status      string `json:"status"`
		AvgPrice    string `json:"avgPrice"`
		ExecutedQty string `json:"executedQty"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return OrderResult{Status: OrderRejected, LatencyMs: elapsedMs(start)}, err
	}

	avgPrice, _ := strconv.ParseFloat(resp.AvgPrice, 64)
	executedQty, _ := strconv.ParseFloat(resp.ExecutedQty, 64)

	status := OrderRejected
	switch resp.Status {
	case "FILLED":
		status = OrderFilled
	case "PARTIALLY_FILLED":
		status = OrderPartiallyFilled
	case "EXPIRED", "CANCELED":
		status = OrderExpired
	}

	return OrderResult{
		AvgPrice:    avgPrice,
		ExecutedQty: executedQty,
		Status:      status,
		LatencyMs:   elapsedMs(start),
	}, nil
}

func (l *Live) CloseAll(ctx context.Context) error {
	positions, err := l.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("close_all: get positions: %w", err)
	}

	var firstErr error
	for _, p := range positions {
		side := AdapterSell
		qty := p.SignedQty
		if qty < 0 {
			side = AdapterBuy
			qty = -qty
		}
		if _, err := l.MarketOrder(ctx, p.Symbol, side, qty); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close_all: %s: %w", p.Symbol, err)
		}
	}
	return firstErr
}

// NewLiveAdapter wraps a Live implementation as the public Adapter type.
func NewLiveAdapter(apiKey, apiSecret, baseURL string) *Adapter {
	return newAdapter(NewLive(apiKey, apiSecret, baseURL))
}
