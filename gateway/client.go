package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt"
	"github.com/ziflex/lecho/v3"
)

var (
	// ErrUnavailable covers network failures and 5xx responses, callers may retry
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrInvalidRequest covers 4xx rejections, never retried
	ErrInvalidRequest = errors.New("gateway rejected request")
)

// errRetryWithToken signals the retry loop that a session token was
// obtained and the attempt should be repeated with it.
var errRetryWithToken = errors.New("retrying with session token")

// sessionToken is the cached result of the email/password fallback
// authentication. It lives on the client, not in package state, and is
// refreshed transparently once expired.
type sessionToken struct {
	token     string
	expiresAt time.Time
}

type HTTPClient struct {
	cfg        *Config
	httpClient *http.Client
	logger     *lecho.Logger

	mu      sync.Mutex
	session sessionToken
}

func NewHTTPClient(cfg *Config, logger *lecho.Logger) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) CreateInvoice(ctx context.Context, params *CreateInvoiceParams) (*Invoice, error) {
	var result struct {
		ID         json.Number `json:"id"`
		InvoiceURL string      `json:"invoice_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/invoice", params, &result); err != nil {
		return nil, err
	}
	if result.ID.String() == "" {
		return nil, fmt.Errorf("%w: invoice response carried no id", ErrInvalidRequest)
	}
	return &Invoice{
		ExternalID:  result.ID.String(),
		CheckoutURL: result.InvoiceURL,
	}, nil
}

func (c *HTTPClient) GetMinimumAmount(ctx context.Context, currencyFrom, currencyTo string) (float64, error) {
	var result struct {
		MinAmount float64 `json:"min_amount"`
	}
	path := fmt.Sprintf("/v1/min-amount?currency_from=%s&currency_to=%s",
		url.QueryEscape(currencyFrom), url.QueryEscape(currencyTo))
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.MinAmount, nil
}

func (c *HTTPClient) GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error) {
	var result struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
		OrderID       string      `json:"order_id"`
		PayAmount     float64     `json:"pay_amount"`
		ActuallyPaid  float64     `json:"actually_paid"`
		PayCurrency   string      `json:"pay_currency"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/payment/"+url.PathEscape(externalID), nil, &result); err != nil {
		return nil, err
	}
	return &PaymentStatus{
		ExternalID:   result.PaymentID.String(),
		Status:       result.PaymentStatus,
		OrderID:      result.OrderID,
		PayAmount:    result.PayAmount,
		ActuallyPaid: result.ActuallyPaid,
		PayCurrency:  result.PayCurrency,
	}, nil
}

// do runs one gateway call with bounded exponential backoff. Transient
// failures (network errors, 5xx) are retried up to MaxRetries, 4xx
// rejections stop immediately.
func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	operation := func() error {
		return c.doOnce(ctx, method, path, body, out)
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries), ctx)
	err := backoff.Retry(operation, bo)
	if errors.Is(err, errRetryWithToken) {
		// ran out of retries while holding a fresh token
		err = fmt.Errorf("%w: authorization kept failing", ErrUnavailable)
	}
	return err
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseUrl+path, reqBody)
	if err != nil {
		return backoff.Permanent(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	if token := c.sessionTokenValue(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case c.isAuthFallbackCode(resp.StatusCode):
		if err := c.authenticate(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return errRetryWithToken
	case resp.StatusCode >= 400:
		var gatewayErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&gatewayErr)
		return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, resp.StatusCode, gatewayErr.Message))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: decoding response: %v", ErrInvalidRequest, err))
	}
	return nil
}

func (c *HTTPClient) isAuthFallbackCode(code int) bool {
	for _, fallbackCode := range c.cfg.AuthFallbackCodes {
		if code == fallbackCode {
			return true
		}
	}
	return false
}

// authenticate obtains a session token with the account credentials
// and caches it until its expiry.
func (c *HTTPClient) authenticate(ctx context.Context) error {
	if c.cfg.Email == "" || c.cfg.Password == "" {
		return fmt.Errorf("%w: authorization rejected and no session credentials configured", ErrInvalidRequest)
	}
	credentials := map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	}
	payload, err := json.Marshal(credentials)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseUrl+"/v1/auth", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: authentication failed with status %d", ErrInvalidRequest, resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Token == "" {
		return fmt.Errorf("%w: authentication response carried no token", ErrInvalidRequest)
	}

	expiresAt := c.tokenExpiry(result.Token)
	c.mu.Lock()
	c.session = sessionToken{
		token:     result.Token,
		expiresAt: expiresAt,
	}
	c.mu.Unlock()
	c.logger.Infof("Obtained gateway session token, valid until %s", expiresAt)
	return nil
}

// tokenExpiry reads the exp claim of the session token. The token is
// issued by the gateway, we only decode it, verification stays on
// their side.
func (c *HTTPClient) tokenExpiry(token string) time.Time {
	fallback := time.Now().Add(time.Duration(c.cfg.SessionTokenTTL) * time.Second)
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return fallback
	}
	return time.Unix(int64(exp), 0)
}

func (c *HTTPClient) sessionTokenValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.token == "" || time.Now().After(c.session.expiresAt) {
		return ""
	}
	return c.session.token
}
