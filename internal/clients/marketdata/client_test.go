package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/domain"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/quote/AAPL":
			_, _ = w.Write([]byte(`{"quote":{"price":182.5,"currency":"usd"}}`))
		case "/quote/USDTRY":
			_, _ = w.Write([]byte(`{"quote":{"price":"32,5"}}`))
		case "/quote/ZERO":
			_, _ = w.Write([]byte(`{"quote":{"price":0,"currency":"USD"}}`))
		case "/quote/SLOW":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"quote":{"price":1,"currency":"USD"}}`))
		case "/quote/BROKEN":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newClient(srvURL string) *Client {
	return NewClient(config.PriceOracleConfig{
		URLTemplate:  srvURL + "/quote/{symbol}?source={source}",
		PricePath:    "$.quote.price",
		CurrencyPath: "$.quote.currency",
		Timeout:      100 * time.Millisecond,
	}, zerolog.Nop())
}

func TestGetPrice(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := newClient(srv.URL)
	ctx := context.Background()

	q, err := c.GetPrice(ctx, domain.PriceQuery{Symbol: "AAPL", AssetType: domain.AssetStock})
	require.NoError(t, err)
	assert.Equal(t, "182.5", q.Price.String())
	assert.Equal(t, "USD", q.Currency)

	fx, err := c.GetPrice(ctx, domain.PriceQuery{Symbol: "USD/TRY", AssetType: domain.AssetCurrency, APISymbol: "USDTRY"})
	require.NoError(t, err)
	assert.Equal(t, "32.5", fx.Price.String())
	assert.Equal(t, "TRY", fx.Currency)

	same, err := c.GetPrice(ctx, domain.ConversionQuery("TRY", "TRY"))
	require.NoError(t, err)
	assert.Equal(t, "1", same.Price.String())
}

func TestGetPrice_Failures(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := newClient(srv.URL)
	ctx := context.Background()

	_, err := c.GetPrice(ctx, domain.PriceQuery{Symbol: "NOPE", AssetType: domain.AssetStock})
	assert.True(t, errors.Is(err, domain.ErrPriceNotFound))

	_, err = c.GetPrice(ctx, domain.PriceQuery{Symbol: "ZERO", AssetType: domain.AssetStock})
	assert.True(t, errors.Is(err, domain.ErrPriceNotFound))

	_, err = c.GetPrice(ctx, domain.PriceQuery{Symbol: "BROKEN", AssetType: domain.AssetStock})
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	_, err = c.GetPrice(ctx, domain.PriceQuery{Symbol: "SLOW", AssetType: domain.AssetStock})
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	unconfigured := NewClient(config.PriceOracleConfig{}, zerolog.Nop())
	_, err = unconfigured.GetPrice(ctx, domain.PriceQuery{Symbol: "AAPL", AssetType: domain.AssetStock})
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))
}

func TestGetPrice_EveryCallReachesOracle(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			_, _ = w.Write([]byte(`{"quote":{"price":30}}`))
			return
		}
		_, _ = w.Write([]byte(`{"quote":{"price":40}}`))
	}))
	defer srv.Close()
	c := newClient(srv.URL)
	ctx := context.Background()

	first, err := c.GetPrice(ctx, domain.ConversionQuery("USD", "TRY"))
	require.NoError(t, err)
	second, err := c.GetPrice(ctx, domain.ConversionQuery("USD", "TRY"))
	require.NoError(t, err)

	assert.Equal(t, "30", first.Price.String())
	assert.Equal(t, "40", second.Price.String())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
