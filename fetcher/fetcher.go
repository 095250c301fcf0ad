// Package fetcher implements SnapshotFetcher (spec.md §2): the REST call
// that retrieves a book's initial snapshot before a WebSocket session
// starts streaming deltas. Grounded on exchanges/request's
// golang.org/x/time/rate-gated HTTP client idiom, with buger/jsonparser
// used for the allocation-light extraction of `{sequence, bids, asks}`
// (and OKX's `{data:[...]}` envelope) without a full struct unmarshal.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/voltbridge/marketcore/book"
	"github.com/voltbridge/marketcore/marketerr"
)

// Fetcher performs rate-limited REST snapshot fetches.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// New builds a Fetcher allowing up to rps requests per second, bursting up
// to burst.
func New(rps float64, burst int) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Snapshot fetches and parses the canonical `{sequence, bids, asks}` shape
// (spec.md §6). Callers supply a URL already built via venue.Binding's
// SnapshotURL; envelope unwrapping for OKX-style `{data:[...]}` responses
// is handled by unwrapDataEnvelope before field extraction.
func (f *Fetcher) Snapshot(ctx context.Context, url string) (book.Event, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return book.Event{}, marketerr.NewSocket(marketerr.SocketTimeout, "rate limiter wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return book.Event{}, marketerr.NewSocket(marketerr.SocketURLParse, url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return book.Event{}, marketerr.NewSocket(marketerr.SocketIO, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return book.Event{}, marketerr.NewSocket(marketerr.SocketIO, "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return book.Event{}, marketerr.NewSocket(marketerr.SocketIO, resp.Status, nil)
	}

	return parseSnapshot(unwrapDataEnvelope(raw))
}

// unwrapDataEnvelope returns the first element of a top-level "data" array
// if present (the OKX-style envelope), otherwise the input unchanged.
func unwrapDataEnvelope(raw []byte) []byte {
	if v, dt, _, err := jsonparser.Get(raw, "data", "[0]"); err == nil && dt == jsonparser.Object {
		return v
	}
	return raw
}

func parseSnapshot(raw []byte) (book.Event, error) {
	seq, err := jsonparser.GetInt(raw, "sequence")
	if err != nil {
		seq = 0
	}

	bids, err := parseLevels(raw, "bids")
	if err != nil {
		return book.Event{}, err
	}
	asks, err := parseLevels(raw, "asks")
	if err != nil {
		return book.Event{}, err
	}

	return book.NewSnapshotEvent(uint64(seq), nil, bids, asks), nil
}

func parseLevels(raw []byte, key string) (book.Levels, error) {
	var levels book.Levels
	var parseErr error
	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		price, amount, err := parseLevelPair(value, dataType)
		if err != nil {
			parseErr = err
			return
		}
		levels = append(levels, book.Level{Price: price, Amount: amount})
	}, key)
	if err != nil && len(levels) == 0 && parseErr == nil {
		return nil, nil
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return levels, nil
}

// parseLevelPair accepts either `{price, amount}` objects or `[price,
// amount]` tuples, since venues vary (spec.md explicitly leaves wire
// shaping out of scope but snapshot parsing must still tolerate both).
func parseLevelPair(value []byte, dataType jsonparser.ValueType) (decimal.Decimal, decimal.Decimal, error) {
	if dataType == jsonparser.Array {
		idx := 0
		var price, amount decimal.Decimal
		var parseErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, _ jsonparser.ValueType, _ int, _ error) {
			if parseErr != nil {
				return
			}
			d, err := decimal.NewFromString(string(v))
			if err != nil {
				parseErr = err
				return
			}
			if idx == 0 {
				price = d
			} else if idx == 1 {
				amount = d
			}
			idx++
		})
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}
		return price, amount, parseErr
	}

	priceStr, err := jsonparser.GetString(value, "price")
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	amountStr, err := jsonparser.GetString(value, "amount")
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return price, amount, nil
}
