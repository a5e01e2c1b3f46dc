package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"alkansya/internal/core"
)

const (
	PathConvert = "api/currency/convert"
	PathRate    = "api/currency/rate"
	PathRates   = "api/currency/rates"
	PathPopular = "api/currency/popular"

	OpConvert = "currency_convert"
	OpRate    = "currency_rate"
	OpRates   = "currency_rates"
	OpPopular = "currency_popular"
)

var errBadRate = errors.New("response carried no positive exchange rate")

// Conversion is the remote answer to a convert request
type Conversion struct {
	ConvertedAmount decimal.Decimal
	ExchangeRate    decimal.Decimal
}

type convertRequest struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

type conversionBody struct {
	ConvertedAmount decimal.NullDecimal `json:"convertedAmount"`
	ExchangeRate    decimal.NullDecimal `json:"exchangeRate"`
}

// convertResponse accepts both the flat shape and {"conversion": {...}}
type convertResponse struct {
	conversionBody
	Conversion *conversionBody `json:"conversion"`
}

// Convert asks the remote service to price amount of from in to.
// A response without a positive rate is treated as a transient failure.
func (c *Client) Convert(ctx context.Context, token, from, to string, amount decimal.Decimal) (Conversion, error) {
	var resp convertResponse
	err := c.do(ctx, call{
		op:     OpConvert,
		method: http.MethodPost,
		path:   PathConvert,
		token:  token,
		auth:   true,
		body:   convertRequest{From: from, To: to, Amount: json.Number(amount.String())},
		out:    &resp,
	})
	if err != nil {
		return Conversion{}, err
	}

	body := resp.conversionBody
	if resp.Conversion != nil {
		body = *resp.Conversion
	}
	if !body.ExchangeRate.Valid || !body.ExchangeRate.Decimal.IsPositive() {
		return Conversion{}, &core.TransientDataError{Op: OpConvert, Err: errBadRate}
	}

	out := Conversion{ExchangeRate: body.ExchangeRate.Decimal}
	if body.ConvertedAmount.Valid {
		out.ConvertedAmount = body.ConvertedAmount.Decimal
	} else {
		out.ConvertedAmount = amount.Mul(out.ExchangeRate)
	}
	return out, nil
}

// Rate returns the remote exchange rate for one unit of from in to
func (c *Client) Rate(ctx context.Context, token, from, to string) (decimal.Decimal, error) {
	var resp struct {
		Rate decimal.NullDecimal `json:"rate"`
	}
	err := c.do(ctx, call{
		op:     OpRate,
		method: http.MethodGet,
		path:   PathRate,
		token:  token,
		auth:   true,
		query:  url.Values{"from": {from}, "to": {to}},
		out:    &resp,
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.Rate.Valid || !resp.Rate.Decimal.IsPositive() {
		return decimal.Zero, &core.TransientDataError{Op: OpRate, Err: errBadRate}
	}
	return resp.Rate.Decimal, nil
}

// Rates returns every rate quoted against base, keyed by currency code
func (c *Client) Rates(ctx context.Context, token, base string) (map[string]decimal.Decimal, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:     OpRates,
		method: http.MethodGet,
		path:   PathRates + "/" + url.PathEscape(base),
		token:  token,
		auth:   true,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Rates) > 0 {
		return wrapped.Rates, nil
	}
	var flat map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, &core.TransientDataError{Op: OpRates, Err: err}
	}
	return flat, nil
}

// Popular returns the currencies the backend highlights
func (c *Client) Popular(ctx context.Context, token string) ([]core.PopularCurrency, error) {
	var out []core.PopularCurrency
	err := c.do(ctx, call{op: OpPopular, method: http.MethodGet, path: PathPopular, token: token, auth: true, out: &out})
	return out, err
}
