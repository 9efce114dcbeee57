package feed

import (
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"reversion/internal/models"
)

// parse.go - decodes the venue's combined-stream envelope. Hot path: every
// trade and book-ticker tick on every configured symbol passes through here,
// so this uses jsoniter's faster-than-encoding/json ConfigCompatibleWithStandardLibrary
// instead of the stdlib decoder the rest of the module uses for REST bodies.

var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the `stream`/`data` wrapper every combined-stream frame arrives in.
type envelope struct {
	Stream string          `json:"stream"`
	Data   jsoniter.RawMessage `json:"data"`
}

type forceOrderFrame struct {
	O struct {
		Symbol   string `json:"s"`
		Side     string `json:"S"`
		Price    string `json:"p"`
		Quantity string `json:"q"`
		EventMs  int64  `json:"T"`
	} `json:"o"`
}

type aggTradeFrame struct {
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	IsBuyerMaker bool   `json:"m"`
	EventMs      int64  `json:"T"`
}

type bookTickerFrame struct {
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// parsedEvent is the discriminated result of decoding one frame. Exactly one
// of the three pointer fields is non-nil.
type parsedEvent struct {
	Liquidation *models.Liquidation
	Trade       *models.Trade
	BookTicker  *models.BookTicker
}

// parseFrame decodes a single inbound message into a typed event. It returns
// (nil, err) only on malformed JSON; an unrecognized-but-valid stream name
// returns (nil, nil) so callers can skip silently rather than error.
func parseFrame(raw []byte) (*parsedEvent, error) {
	var env envelope
	if err := jsonFast.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch {
	case env.Stream == "!forceOrder@arr":
		var f forceOrderFrame
		if err := jsonFast.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		price, _ := strconv.ParseFloat(f.O.Price, 64)
		qty, _ := strconv.ParseFloat(f.O.Quantity, 64)
		return &parsedEvent{Liquidation: &models.Liquidation{
			Symbol:    f.O.Symbol,
			Side:      models.Side(f.O.Side),
			Price:     price,
			Quantity:  qty,
			Timestamp: epochMs(f.O.EventMs),
		}}, nil

	case strings.HasSuffix(env.Stream, "@aggTrade"):
		var f aggTradeFrame
		if err := jsonFast.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		price, _ := strconv.ParseFloat(f.Price, 64)
		qty, _ := strconv.ParseFloat(f.Quantity, 64)
		return &parsedEvent{Trade: &models.Trade{
			Symbol:       f.Symbol,
			Price:        price,
			Quantity:     qty,
			IsBuyerMaker: f.IsBuyerMaker,
			Timestamp:    epochMs(f.EventMs),
		}}, nil

	case strings.HasSuffix(env.Stream, "@bookTicker"):
		var f bookTickerFrame
		if err := jsonFast.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		bid, _ := strconv.ParseFloat(f.BidPrice, 64)
		bidQty, _ := strconv.ParseFloat(f.BidQty, 64)
		ask, _ := strconv.ParseFloat(f.AskPrice, 64)
		askQty, _ := strconv.ParseFloat(f.AskQty, 64)
		return &parsedEvent{BookTicker: &models.BookTicker{
			Symbol:    f.Symbol,
			BidPrice:  bid,
			BidQty:    bidQty,
			AskPrice:  ask,
			AskQty:    askQty,
			Timestamp: time.Now(),
		}}, nil

	default:
		return nil, nil
	}
}

func epochMs(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
