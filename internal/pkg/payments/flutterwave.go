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

const defaultFlutterwaveAPIURL = "https://api.flutterwave.com/v3"

// FlutterwaveClient talks to the Flutterwave v3 API for card checkouts.
type FlutterwaveClient struct {
	SecretKey  string
	APIBaseURL string
	BaseURL    string

	HTTPClient *http.Client
}

func NewFlutterwaveClient(cfg Config) *FlutterwaveClient {
	apiURL := strings.TrimRight(cfg.FlutterwaveAPIURL, "/")
	if apiURL == "" {
		apiURL = defaultFlutterwaveAPIURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &FlutterwaveClient{
		SecretKey:  strings.TrimSpace(cfg.FlutterwaveSecretKey),
		APIBaseURL: apiURL,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *FlutterwaveClient) Name() string {
	return "flutterwave"
}

type flutterwaveCustomer struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phonenumber"`
}

type flutterwaveCustomizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type flutterwaveCreateRequest struct {
	TxRef          string                    `json:"tx_ref"`
	Amount         float64                   `json:"amount"`
	Currency       string                    `json:"currency"`
	RedirectURL    string                    `json:"redirect_url"`
	Customer       flutterwaveCustomer       `json:"customer"`
	Customizations flutterwaveCustomizations `json:"customizations"`
}

type flutterwaveCreateResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID   json.Number `json:"id"`
		Link string      `json:"link"`
	} `json:"data"`
}

// CreateCheckout creates a hosted card checkout and returns the payment link.
func (c *FlutterwaveClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if c.SecretKey == "" {
		return nil, errors.New("flutterwave secret key is not configured")
	}

	payload := flutterwaveCreateRequest{
		TxRef:       req.Reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: c.BaseURL + "/payment/flutterwave/callback",
		Customer: flutterwaveCustomer{
			Email:       req.CustomerEmail,
			Name:        req.CustomerName,
			PhoneNumber: req.CustomerPhone,
		},
		Customizations: flutterwaveCustomizations{
			Title:       "AstraFabric Security Subscription",
			Description: req.Description,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flutterwave request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("flutterwave response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flutterwave returned status %d", resp.StatusCode)
	}

	var out flutterwaveCreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("flutterwave response malformed: %w", err)
	}
	if out.Status != "success" || out.Data.Link == "" {
		return nil, fmt.Errorf("flutterwave rejected checkout (status %q)", out.Status)
	}

	return &CheckoutSession{
		TransactionID: out.Data.ID.String(),
		CheckoutURL:   out.Data.Link,
	}, nil
}

type flutterwaveVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status   string  `json:"status"`
		TxRef    string  `json:"tx_ref"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

// VerifyTransaction re-checks a transaction server side and returns what the
// gateway says was actually paid. Used by the redirect callback, which is
// attacker-reachable and therefore never trusted alone. A nil result means
// the transaction is unknown or not successful.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedTransaction, error) {
	if c.SecretKey == "" {
		return nil, errors.New("flutterwave secret key is not configured")
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, errors.New("transaction id is required")
	}

	url := fmt.Sprintf("%s/transactions/%s/verify", c.APIBaseURL, transactionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flutterwave verify failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var out flutterwaveVerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("flutterwave verify response malformed: %w", err)
	}
	if out.Status != "success" || out.Data.Status != "successful" {
		return nil, nil
	}
	return &VerifiedTransaction{
		TxRef:    out.Data.TxRef,
		Amount:   out.Data.Amount,
		Currency: out.Data.Currency,
	}, nil
}

// FlutterwaveEvent is the typed webhook payload. Only charge.completed events
// carry state we act on; everything else is recorded and ignored.
type FlutterwaveEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID     json.Number `json:"id"`
		TxRef  string      `json:"tx_ref"`
		Status string      `json:"status"`
		Amount float64     `json:"amount"`
	} `json:"data"`
}

// ParseFlutterwaveEvent decodes and validates a webhook body. The reference
// check only applies to charge.completed events; other event types are
// allowed through so they can be logged as ignored.
func ParseFlutterwaveEvent(raw []byte) (*FlutterwaveEvent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	var ev FlutterwaveEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if ev.Event == "charge.completed" && strings.TrimSpace(ev.Data.TxRef) == "" {
		return nil, ErrMissingReference
	}
	return &ev, nil
}
