// Package clients holds the HTTP adapters for the external collaborators of the ledger.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// StatusError is returned by GetJSON for a non-2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// GetJSON fetches url and decodes the body with numbers kept as json.Number
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var doc interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return doc, nil
}

// Lookup evaluates a jsonpath expression and returns the first match.
// jsonpath may answer with a single value or a list of one.
func Lookup(path string, doc interface{}) (interface{}, error) {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	if list, ok := val.([]interface{}); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("no match for %q", path)
		}
		val = list[0]
	}
	return val, nil
}

// LookupDecimal reads a number at path. Strings are accepted, with a comma decimal separator too.
func LookupDecimal(path string, doc interface{}) (decimal.Decimal, error) {
	val, err := Lookup(path, doc)
	if err != nil {
		return decimal.Zero, err
	}
	switch v := val.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("value at %q is not a number: %q", path, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("value at %q is not a number: %v", path, val)
	}
}

// LookupString reads a string at path
func LookupString(path string, doc interface{}) (string, error) {
	val, err := Lookup(path, doc)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("value at %q is not a string: %v", path, val)
	}
	return s, nil
}
