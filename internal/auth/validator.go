// Package auth decides whether the stored session may be used for
// authenticated calls, and drives the session lifecycle.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"alkansya/internal/core"
	"alkansya/internal/log"
)

// Confirmer asks the server whether a token is still accepted
type Confirmer interface {
	Validate(ctx context.Context, token string) error
}

// Validator checks tokens locally and against the server
type Validator struct {
	confirmer Confirmer
	skew      time.Duration
	now       func() time.Time
	group     singleflight.Group
	logger    *log.Logger
}

// NewValidator creates a validator. skew is the leeway applied to the
// exp and nbf claims.
func NewValidator(confirmer Confirmer, skew time.Duration, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Discard()
	}
	return &Validator{
		confirmer: confirmer,
		skew:      skew,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentAuth),
	}
}

// WithClock overrides the time source
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// IsLikelyValid is a local structural check: the token must be a JWT and,
// if it carries exp or nbf claims, be inside them. The signature is not
// verified and no network call is made.
func (v *Validator) IsLikelyValid(token string) bool {
	if token == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		v.logger.Debug("Token is not a parseable JWT", log.FieldError, err.Error())
		return false
	}

	now := v.now()
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time.Add(v.skew)) {
		return false
	}
	if claims.NotBefore != nil && now.Add(v.skew).Before(claims.NotBefore.Time) {
		return false
	}
	return true
}

// ConfirmValid asks the server. Any failure, including network errors and
// cancellation, yields false. Concurrent checks for the same token share
// one request.
func (v *Validator) ConfirmValid(ctx context.Context, token string) bool {
	if token == "" || v.confirmer == nil {
		return false
	}

	ch := v.group.DoChan(token, func() (any, error) {
		return nil, v.confirmer.Validate(context.WithoutCancel(ctx), token)
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return true
	}

	kind := log.ErrorTypeTransient
	if core.IsAuthError(err) {
		kind = log.ErrorTypeAuth
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = log.ErrorTypeNetwork
	}
	v.logger.WarnContext(ctx, "Token confirmation failed",
		log.FieldOperation, log.OpConfirm,
		log.FieldErrorType, kind,
		log.FieldError, err.Error())
	return false
}
