package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrNotConfigured   = errors.New("checkout provider is not configured")
	ErrSessionNotFound = errors.New("checkout session not found")
)

// Session is the provider-side view of a hosted checkout.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func (s Session) Paid() bool {
	return strings.EqualFold(strings.TrimSpace(s.PaymentStatus), "paid")
}

type CreateSessionInput struct {
	AmountUSDCents  int
	Description     string
	ClientReference string
	SuccessURL      string
	CancelURL       string
	Metadata        map[string]string
}

// Client talks to the payment provider's checkout API. Only two calls are
// needed: create a hosted session and read one back for confirmation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(httpClient *http.Client, baseURL, apiKey string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}, nil
}

func (c *Client) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	if in.AmountUSDCents <= 0 {
		return Session{}, fmt.Errorf("invalid checkout amount")
	}

	form := url.Values{}
	form.Set("amount", strconv.Itoa(in.AmountUSDCents))
	form.Set("currency", "usd")
	form.Set("description", in.Description)
	form.Set("client_reference_id", in.ClientReference)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	for key, value := range in.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("build create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.doSession(req, "create checkout session")
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Session{}, fmt.Errorf("invalid checkout session id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return Session{}, fmt.Errorf("build get session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.doSession(req, "get checkout session")
}

func (c *Client) doSession(req *http.Request, op string) (Session, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return Session{}, ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return Session{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if strings.TrimSpace(session.ID) == "" {
		return Session{}, fmt.Errorf("%s: response has no session id", op)
	}

	return session, nil
}
