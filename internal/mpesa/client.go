package mpesa

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Daraja base URLs (Safaricom developer portal).
const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"
)

const (
	timestampLayout = "20060102150405"

	// Daraja rejects account references longer than 12 characters.
	maxAccountReference = 12

	// Anything shorter than this cannot be a real credential or token.
	minCredentialLen = 10
	minTokenLen      = 10

	maxErrorBody = 200

	defaultTimeout    = 30 * time.Second
	defaultTokenTTL   = 3599 * time.Second
	tokenExpiryMargin = 60 * time.Second
)

var (
	// ErrCredentialsMissing means the consumer key/secret are absent or implausibly short.
	ErrCredentialsMissing = errors.New("mpesa: consumer key or secret missing or too short")
	// ErrPasskeyMissing means the Lipa Na M-Pesa passkey is not configured.
	ErrPasskeyMissing = errors.New("mpesa: passkey not configured")
	// ErrInvalidPhone is returned for numbers not in 2547XXXXXXXX form.
	ErrInvalidPhone = errors.New("mpesa: phone must be 12 digits starting with 254")
	// ErrInvalidAmount is returned for amounts below 1 KES.
	ErrInvalidAmount = errors.New("mpesa: amount must be at least 1")
	// ErrMalformedResponse means the provider answered 2xx with an undecodable or token-absent body.
	ErrMalformedResponse = errors.New("mpesa: malformed provider response")
)

// HTTPError reports a non-2xx provider response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("mpesa: HTTP %d: %s", e.Status, e.Body)
}

// Transport failure kinds carried by NetworkError.
const (
	NetworkTimeout    = "timeout"
	NetworkTLS        = "tls"
	NetworkConnection = "connection"
)

// NetworkError classifies a transport-level failure on an outbound call.
type NetworkError struct {
	Kind string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("mpesa: network %s: %v", e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DeclinedError reports a push the provider accepted over HTTP but rejected
// at the application level.
type DeclinedError struct {
	Code        string
	Description string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("mpesa: push declined (code %q): %s", e.Code, e.Description)
}

// TokenCache stores the short-lived bearer token between pushes. A miss is
// always safe: the client just fetches a fresh token.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, ttl time.Duration)
}

// Config carries Daraja credentials and environment selection.
type Config struct {
	Env            string // "sandbox" or "production"
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	Timeout        time.Duration
}

// Client talks to the Daraja STK Push API. It holds no order state; all it
// does is exchange credentials for tokens and submit push requests.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	cache   TokenCache
	now     func() time.Time
}

// New builds a Client for the configured environment. A nil cache falls back
// to an in-process one.
func New(cfg Config, cache TokenCache) *Client {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := sandboxBaseURL
	if cfg.Env == "production" {
		base = productionBaseURL
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// AccessToken returns a bearer token for the configured credentials,
// consulting the cache before hitting the provider. No retries: the caller
// decides what a failure means.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	key := strings.TrimSpace(c.cfg.ConsumerKey)
	secret := strings.TrimSpace(c.cfg.ConsumerSecret)
	if len(key) < minCredentialLen || len(secret) < minCredentialLen {
		return "", ErrCredentialsMissing
	}

	if token, ok := c.cache.Get(ctx); ok {
		return token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(key, secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Kind: NetworkConnection, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var decoded tokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Error != "" {
		desc := decoded.ErrorDesc
		if desc == "" {
			desc = decoded.Error
		}
		return "", fmt.Errorf("%w: %s", ErrMalformedResponse, desc)
	}
	if len(decoded.AccessToken) < minTokenLen {
		return "", fmt.Errorf("%w: access token missing or too short", ErrMalformedResponse)
	}

	c.cache.Set(ctx, decoded.AccessToken, tokenTTL(decoded.ExpiresIn))
	return decoded.AccessToken, nil
}

// STKPushInput describes one push-payment attempt.
type STKPushInput struct {
	Phone       string
	Amount      int64
	Reference   string
	CallbackURL string
}

// STKPushResult is the provider's answer to an accepted push request.
type STKPushResult struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseDescription string
	CustomerMessage     string
	Raw                 []byte
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// InitiateSTKPush validates the input locally, then submits a signed push
// request. Success requires ResponseCode "0" AND a non-empty
// CheckoutRequestID; every other combination is an error. The call mutates
// no local state.
func (c *Client) InitiateSTKPush(ctx context.Context, in STKPushInput) (*STKPushResult, error) {
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if in.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	shortcode := strings.TrimSpace(c.cfg.ShortCode)
	passkey := strings.TrimSpace(c.cfg.Passkey)
	if passkey == "" {
		return nil, ErrPasskeyMissing
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := c.now().Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + ts))

	reference := in.Reference
	if len(reference) > maxAccountReference {
		reference = reference[:maxAccountReference]
	}

	payload, err := json.Marshal(stkPushRequest{
		BusinessShortCode: shortcode,
		Password:          password,
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            in.Amount,
		PartyA:            phone,
		PartyB:            shortcode,
		PhoneNumber:       phone,
		CallBackURL:       in.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   "Order payment",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Kind: NetworkConnection, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var decoded stkPushResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.ErrorCode != "" || decoded.ErrorMessage != "" {
		return nil, &DeclinedError{Code: decoded.ErrorCode, Description: decoded.ErrorMessage}
	}

	code := strings.TrimSpace(decoded.ResponseCode)
	id := strings.TrimSpace(decoded.CheckoutRequestID)
	if code != "0" || id == "" {
		desc := decoded.ResponseDescription
		if desc == "" {
			desc = "push not accepted"
		}
		return nil, &DeclinedError{Code: code, Description: desc}
	}

	return &STKPushResult{
		MerchantRequestID:   decoded.MerchantRequestID,
		CheckoutRequestID:   id,
		ResponseDescription: decoded.ResponseDescription,
		CustomerMessage:     decoded.CustomerMessage,
		Raw:                 body,
	}, nil
}

// NormalizePhone strips spaces, dashes and a leading plus, then checks the
// result is exactly 12 digits with the 254 country code.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(strings.TrimSpace(phone))
	if len(cleaned) != 12 || !strings.HasPrefix(cleaned, "254") {
		return "", ErrInvalidPhone
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return cleaned, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	var certErr *tls.CertificateVerificationError
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return &NetworkError{Kind: NetworkTimeout, Err: err}
	case errors.As(err, &certErr):
		return &NetworkError{Kind: NetworkTLS, Err: err}
	default:
		return &NetworkError{Kind: NetworkConnection, Err: err}
	}
}

func tokenTTL(expiresIn string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(expiresIn))
	if err != nil || secs <= 0 {
		return defaultTokenTTL - tokenExpiryMargin
	}
	ttl := time.Duration(secs)*time.Second - tokenExpiryMargin
	if ttl <= 0 {
		ttl = time.Duration(secs) * time.Second
	}
	return ttl
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
