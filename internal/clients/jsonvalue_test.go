package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONAndLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"data":{"quotes":[{"last":182.12345678901,"ccy":"USD"}],"text":"1,25"}}`))
	}))
	defer srv.Close()

	doc, err := GetJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"X-API-Key": "secret"})
	require.NoError(t, err)

	price, err := LookupDecimal("$.data.quotes[0].last", doc)
	require.NoError(t, err)
	assert.Equal(t, "182.12345678901", price.String())

	ccy, err := LookupString("$.data.quotes[0].ccy", doc)
	require.NoError(t, err)
	assert.Equal(t, "USD", ccy)

	text, err := LookupDecimal("$.data.text", doc)
	require.NoError(t, err)
	assert.Equal(t, "1.25", text.String())

	_, err = LookupDecimal("$.data.quotes[0].ccy", doc)
	assert.Error(t, err)
	_, err = Lookup("$.missing", doc)
	assert.Error(t, err)
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := GetJSON(context.Background(), srv.Client(), srv.URL, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such symbol", se.Body)
}
