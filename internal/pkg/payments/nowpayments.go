package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultNowPaymentsAPIURL = "https://api.nowpayments.io/v1"

// NowPaymentsClient talks to the NOWPayments REST API for crypto checkouts.
type NowPaymentsClient struct {
	APIKey     string
	APIBaseURL string
	BaseURL    string

	HTTPClient *http.Client
}

// NewNowPaymentsClient builds a client from the explicit payments config.
func NewNowPaymentsClient(cfg Config) *NowPaymentsClient {
	apiURL := strings.TrimRight(cfg.NowPaymentsAPIURL, "/")
	if apiURL == "" {
		apiURL = defaultNowPaymentsAPIURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &NowPaymentsClient{
		APIKey:     strings.TrimSpace(cfg.NowPaymentsAPIKey),
		APIBaseURL: apiURL,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *NowPaymentsClient) Name() string {
	return "nowpayments"
}

type nowPaymentsCreateRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

type nowPaymentsCreateResponse struct {
	PaymentID  json.Number `json:"payment_id"`
	InvoiceURL string      `json:"invoice_url"`
}

// CreateCheckout creates a hosted crypto checkout. NOWPayments answers 201
// with a payment id and an invoice URL the customer is redirected to.
func (c *NowPaymentsClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if c.APIKey == "" {
		return nil, errors.New("nowpayments api key is not configured")
	}

	payload := nowPaymentsCreateRequest{
		PriceAmount:      req.Amount,
		PriceCurrency:    req.Currency,
		PayCurrency:      "btc",
		OrderID:          req.Reference,
		OrderDescription: req.Description,
		SuccessURL:       c.BaseURL + "/payment/success",
		CancelURL:        c.BaseURL + "/payment/cancel",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nowpayments request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("nowpayments response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("nowpayments returned status %d", resp.StatusCode)
	}

	var out nowPaymentsCreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("nowpayments response malformed: %w", err)
	}
	if out.InvoiceURL == "" {
		return nil, errors.New("nowpayments response missing invoice_url")
	}

	return &CheckoutSession{
		TransactionID: out.PaymentID.String(),
		CheckoutURL:   out.InvoiceURL,
	}, nil
}

// NowPaymentsEvent is the typed shape of an IPN callback. It is parsed once
// at the boundary; required fields are checked there, not deep in processing.
type NowPaymentsEvent struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PayAmount     float64     `json:"pay_amount"`
	PriceAmount   float64     `json:"price_amount"`
	PriceCurrency string      `json:"price_currency"`
}

// ErrMissingReference marks a webhook without the gateway's order reference.
var ErrMissingReference = errors.New("webhook payload missing payment reference")

// ErrMalformedPayload marks a webhook body that is not valid JSON.
var ErrMalformedPayload = errors.New("webhook payload is not valid json")

// ParseNowPaymentsEvent decodes and validates an IPN body.
func ParseNowPaymentsEvent(raw []byte) (*NowPaymentsEvent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	var ev NowPaymentsEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(ev.OrderID) == "" {
		return nil, ErrMissingReference
	}
	return &ev, nil
}
