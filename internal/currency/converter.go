package currency

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"alkansya/internal/api"
	"alkansya/internal/cache"
	"alkansya/internal/core"
	"alkansya/internal/log"
	"alkansya/internal/metrics"
)

// Source says where the rate behind a Result came from
type Source string

const (
	SourceIdentity Source = "identity"
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Result is a priced conversion. ConvertedAmount is always
// Round2(OriginalAmount * RateUsed), except for the identity case where it
// is the original amount unchanged.
type Result struct {
	OriginalAmount    decimal.Decimal
	OriginalCurrency  string
	ConvertedAmount   decimal.Decimal
	ConvertedCurrency string
	RateUsed          decimal.Decimal
	SourceWasFallback bool
	Source            Source
}

// Original returns the amount that was converted
func (r Result) Original() core.MonetaryAmount {
	return core.NewAmount(r.OriginalAmount, r.OriginalCurrency)
}

// Converted returns the amount in the target currency
func (r Result) Converted() core.MonetaryAmount {
	return core.NewAmount(r.ConvertedAmount, r.ConvertedCurrency)
}

// Remote prices a conversion on the server
type Remote interface {
	Convert(ctx context.Context, token, from, to string, amount decimal.Decimal) (api.Conversion, error)
}

// Converter converts amounts, preferring the remote rate and falling back
// to its table when the remote cannot answer.
type Converter struct {
	remote     Remote
	table      FallbackTable
	rates      cache.Cache[decimal.Decimal]
	logger     *log.Logger
	structured *log.StructuredLogger
	metrics    metrics.Recorder
}

// Option configures a Converter
type Option func(*Converter)

// WithRateCache keeps successful remote rates per pair
func WithRateCache(c cache.Cache[decimal.Decimal]) Option {
	return func(cv *Converter) { cv.rates = c }
}

// WithMetrics reports each conversion by source
func WithMetrics(r metrics.Recorder) Option {
	return func(cv *Converter) {
		if r != nil {
			cv.metrics = r
		}
	}
}

// NewConverter creates a converter. remote may be nil, in which case only
// the fallback table is used.
func NewConverter(remote Remote, table FallbackTable, logger *log.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentCurrency)
	c := &Converter{
		remote:     remote,
		table:      table,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		metrics:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the fallback table in use
func (c *Converter) Table() FallbackTable {
	return c.table
}

// Convert prices amount of from in to.
//
// Input is validated before any I/O. Equal currencies return the amount
// unchanged with rate 1. Auth failures and context cancellation are
// returned as-is. Any other remote failure falls back to the table; if the
// table cannot price the pair either, a *core.ConversionUnavailableError is
// returned and the original amount stays authoritative.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to, token string) (Result, error) {
	from = core.NormalizeCurrency(from)
	to = core.NormalizeCurrency(to)
	if err := validateInput(amount, from, to); err != nil {
		return Result{}, err
	}

	if from == to {
		res := Result{
			OriginalAmount:    amount,
			OriginalCurrency:  from,
			ConvertedAmount:   amount,
			ConvertedCurrency: to,
			RateUsed:          decimal.NewFromInt(1),
			Source:            SourceIdentity,
		}
		c.record(ctx, res)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := pairKey(from, to)
	if c.rates != nil {
		if rate, ok := c.rates.Get(key); ok {
			res := priced(amount, from, to, rate, SourceCache)
			c.record(ctx, res)
			return res, nil
		}
	}

	remoteErr := errors.New("no remote rate service")
	if c.remote != nil {
		conv, err := c.remote.Convert(ctx, token, from, to, amount)
		if err == nil {
			if c.rates != nil {
				c.rates.Set(key, conv.ExchangeRate)
			}
			res := priced(amount, from, to, conv.ExchangeRate, SourceRemote)
			c.record(ctx, res)
			return res, nil
		}
		if core.IsAuthError(err) {
			return Result{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		remoteErr = err
		c.logger.WarnContext(ctx, "Remote conversion failed, trying fallback table",
			log.FieldCurrencyFrom, from,
			log.FieldCurrencyTo, to,
			log.FieldError, err.Error())
	}

	rate, ok := c.table.CrossRate(from, to)
	if !ok {
		c.logger.WarnContext(ctx, "Conversion unavailable",
			log.FieldCurrencyFrom, from,
			log.FieldCurrencyTo, to,
			log.FieldErrorType, log.ErrorTypeConversion)
		c.metrics.RecordConversion("unavailable")
		return Result{}, &core.ConversionUnavailableError{From: from, To: to, Err: remoteErr}
	}

	res := priced(amount, from, to, rate, SourceFallback)
	res.SourceWasFallback = true
	c.record(ctx, res)
	return res, nil
}

// ConvertAmount converts m into to
func (c *Converter) ConvertAmount(ctx context.Context, m core.MonetaryAmount, to, token string) (Result, error) {
	return c.Convert(ctx, m.Value, m.Currency, to, token)
}

func (c *Converter) record(ctx context.Context, r Result) {
	c.metrics.RecordConversion(string(r.Source))
	c.structured.LogConversion(ctx, r.OriginalCurrency, r.ConvertedCurrency,
		r.OriginalAmount.String(), r.RateUsed.String(), string(r.Source), r.SourceWasFallback)
}

func priced(amount decimal.Decimal, from, to string, rate decimal.Decimal, src Source) Result {
	return Result{
		OriginalAmount:    amount,
		OriginalCurrency:  from,
		ConvertedAmount:   core.Round2(amount.Mul(rate)),
		ConvertedCurrency: to,
		RateUsed:          rate,
		Source:            src,
	}
}

func validateInput(amount decimal.Decimal, from, to string) error {
	if !amount.IsPositive() {
		return &core.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if core.ValidateCurrency(from) != nil {
		return &core.ValidationError{Field: "from", Message: "must be a three letter ISO-4217 code"}
	}
	if core.ValidateCurrency(to) != nil {
		return &core.ValidationError{Field: "to", Message: "must be a three letter ISO-4217 code"}
	}
	return nil
}

func pairKey(from, to string) string {
	return from + "/" + to
}
