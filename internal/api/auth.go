package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"alkansya/internal/core"
)

const (
	PathLogin          = "api/users/login"
	PathChangeCurrency = "api/users/changeCurrency"

	OpLogin          = "login"
	OpValidate       = "validate"
	OpChangeCurrency = "change_currency"
)

var errNoToken = errors.New("login response carried no token")

// Credentials are what the user types at the login prompt
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects empty fields before anything is sent
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return &core.ValidationError{Field: "email", Message: "is required"}
	}
	if c.Password == "" {
		return &core.ValidationError{Field: "password", Message: "is required"}
	}
	return nil
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token    string
	UserID   string
	Email    string
	Currency string
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Currency string `json:"currency"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	if err := creds.Validate(); err != nil {
		return LoginResult{}, err
	}

	var resp loginResponse
	err := c.do(ctx, call{
		op:     OpLogin,
		method: http.MethodPost,
		path:   PathLogin,
		body:   creds,
		out:    &resp,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if resp.Token == "" {
		return LoginResult{}, &core.AuthError{Op: OpLogin, Err: errNoToken}
	}

	return LoginResult{
		Token:    resp.Token,
		UserID:   resp.User.UserID,
		Email:    resp.User.Email,
		Currency: core.NormalizeCurrency(resp.User.Currency),
	}, nil
}

// Validate asks the server whether token is still accepted.
// Any 2xx response means yes.
func (c *Client) Validate(ctx context.Context, token string) error {
	return c.do(ctx, call{op: OpValidate, method: http.MethodGet, path: c.validatePath, token: token, auth: true})
}

// ChangeCurrency stores the preferred display currency on the server
func (c *Client) ChangeCurrency(ctx context.Context, token, currency string) error {
	code := core.NormalizeCurrency(currency)
	if err := core.ValidateCurrency(code); err != nil {
		return err
	}
	return c.do(ctx, call{
		op:     OpChangeCurrency,
		method: http.MethodPost,
		path:   PathChangeCurrency,
		token:  token,
		auth:   true,
		body:   map[string]string{"currency": code},
	})
}
