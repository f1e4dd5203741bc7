package policyrate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/domain"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

type fakeSettings struct {
	values map[string]float64
	err    error
}

func (f fakeSettings) GetFloat(key string, def float64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func TestClient_PolicyRate(t *testing.T) {
	var fail int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"policy":{"rate":"47.5"}}}`))
	}))
	defer srv.Close()

	c := NewClient(config.PolicyRateConfig{URL: srv.URL, RatePath: "$.data.policy.rate"}, nil, zerolog.Nop())
	rate, err := c.PolicyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "47.5", rate.String())

	atomic.StoreInt32(&fail, 1)
	_, err = c.PolicyRate(context.Background())
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	unconfigured := NewClient(config.PolicyRateConfig{}, nil, zerolog.Nop())
	_, err = unconfigured.PolicyRate(context.Background())
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))
}

func TestProvider_Resolution(t *testing.T) {
	ctx := context.Background()
	feed := testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)}
	down := testutil.FakePolicyRate{Err: domain.ExternalUnavailable(nil, "down")}

	override := NewProvider(fakeSettings{values: map[string]float64{"policy_rate_override": 42}}, feed, 0, zerolog.Nop())
	rate, err := override.PolicyRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", rate.String())

	live := NewProvider(fakeSettings{}, feed, 30, zerolog.Nop())
	rate, err = live.PolicyRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "50", rate.String())

	fallback := NewProvider(fakeSettings{err: errors.New("db locked")}, down, 30, zerolog.Nop())
	rate, err = fallback.PolicyRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "30", rate.String())

	none := NewProvider(nil, down, 0, zerolog.Nop())
	_, err = none.PolicyRate(ctx)
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	empty := NewProvider(nil, nil, 0, zerolog.Nop())
	_, err = empty.PolicyRate(ctx)
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))
}
