package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grannhjalp/grannhjalp/internal/processor"
)

const apiBase = "https://api.stripe.com"

// Client talks to the Stripe API over form-encoded HTTP. Every call is
// bounded by the underlying client timeout so no request blocks forever.
type Client struct {
	apiKey string
	client *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params processor.CheckoutSessionParams) (processor.CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountMinor, 10))
	values.Set("line_items[0][price_data][product_data][name]", params.Description)
	setMetadata(values, "metadata", params.Metadata)

	var session checkoutSessionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session); err != nil {
		return processor.CheckoutSession{}, err
	}
	if session.ID == "" || session.URL == "" {
		return processor.CheckoutSession{}, fmt.Errorf("%w: malformed checkout session response", processor.ErrUpstream)
	}
	return processor.CheckoutSession{
		ID:              session.ID,
		URL:             session.URL,
		PaymentIntentID: session.PaymentIntent,
	}, nil
}

func (c *Client) CreateTransfer(ctx context.Context, params processor.TransferParams) (processor.Transfer, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.AmountMinor, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	values.Set("destination", params.DestinationAccount)
	setMetadata(values, "metadata", params.Metadata)

	var transfer transferResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/transfers", values, params.IdempotencyKey, &transfer); err != nil {
		return processor.Transfer{}, err
	}
	if transfer.ID == "" {
		return processor.Transfer{}, fmt.Errorf("%w: malformed transfer response", processor.ErrUpstream)
	}
	return processor.Transfer{ID: transfer.ID}, nil
}

func (c *Client) CreateConnectedAccount(ctx context.Context, params processor.AccountParams) (processor.Account, error) {
	values := url.Values{}
	values.Set("type", "express")
	values.Set("email", params.Email)
	values.Set("capabilities[transfers][requested]", "true")
	setMetadata(values, "metadata", params.Metadata)

	var account accountResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/accounts", values, "", &account); err != nil {
		return processor.Account{}, err
	}
	if account.ID == "" {
		return processor.Account{}, fmt.Errorf("%w: malformed account response", processor.ErrUpstream)
	}
	return processor.Account{ID: account.ID}, nil
}

func (c *Client) CreateAccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	values := url.Values{}
	values.Set("account", accountID)
	values.Set("refresh_url", refreshURL)
	values.Set("return_url", returnURL)
	values.Set("type", "account_onboarding")

	var link accountLinkResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/account_links", values, "", &link); err != nil {
		return "", err
	}
	if link.URL == "" {
		return "", fmt.Errorf("%w: malformed account link response", processor.ErrUpstream)
	}
	return link.URL, nil
}

type checkoutSessionResponse struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type accountResponse struct {
	ID string `json:"id"`
}

type accountLinkResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: api key not configured", processor.ErrUpstream)
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", processor.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		message := "request failed"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&stripeErr); decodeErr == nil {
			if m := strings.TrimSpace(stripeErr.Error.Message); m != "" {
				message = m
			}
		}
		return fmt.Errorf("%w: %s (status %d)", processor.ErrUpstream, message, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", processor.ErrUpstream, err)
	}
	return nil
}

func setMetadata(values url.Values, prefix string, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values.Set(fmt.Sprintf("%s[%s]", prefix, key), metadata[key])
	}
}
