package payments

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
)

// Config carries every external setting the payments service needs. It is
// built once at router install time and passed in explicitly; the service
// never reads the environment on its own.
type Config struct {
	// BaseURL is the public origin used for gateway redirect and callback URLs.
	BaseURL string

	NowPaymentsAPIKey    string
	NowPaymentsIPNSecret string
	NowPaymentsAPIURL    string

	FlutterwaveSecretKey  string
	FlutterwaveSecretHash string
	FlutterwaveAPIURL     string

	// HTTPTimeout bounds every outbound gateway call.
	HTTPTimeout time.Duration
}

// IntentInput is the validated request to start a checkout.
type IntentInput struct {
	Name         string  `json:"name" validate:"required,min=2,max=255"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Company      string  `json:"company" validate:"max=255"`
	Phone        string  `json:"phone" validate:"max=30"`
	Plan         string  `json:"plan" validate:"required,oneof=essential professional enterprise"`
	BillingCycle string  `json:"billing" validate:"required,oneof=monthly yearly"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// Intent is the result of a successful checkout creation.
type Intent struct {
	PaymentID            uint   `json:"payment_id"`
	Reference            string `json:"reference"`
	GatewayTransactionID string `json:"gateway_transaction_id"`
	CheckoutURL          string `json:"payment_url"`
}

// CheckoutRequest is the provider-agnostic shape passed to a Gateway.
type CheckoutRequest struct {
	Amount        float64
	Currency      string
	Reference     string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
	Description   string
}

// CheckoutSession is what a Gateway hands back on success.
type CheckoutSession struct {
	TransactionID string
	CheckoutURL   string
}

// VerifiedTransaction is the gateway's own record of a successful charge,
// returned by server-side verification. Callers must match it against the
// local payment before completing anything.
type VerifiedTransaction struct {
	TxRef    string
	Amount   float64
	Currency string
}

// EventOutcome values describe what a webhook did to the local state.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRefunded  = "refunded"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)

// EventResult is the normalized result of processing one webhook delivery.
type EventResult struct {
	Outcome      string
	Reference    string
	WebhookLogID uint
	Payment      *models.Payment
	Subscription *models.Subscription
}

// WebhookRequest captures the raw inbound delivery before any processing.
type WebhookRequest struct {
	RawBody   []byte
	Signature string
	// HeadersJSON is the full header set serialized for the audit log.
	HeadersJSON string
	IPAddress   string
}

// Notifier delivers customer-facing notices triggered by payment events.
// Delivery failures are logged, never propagated into webhook processing.
type Notifier interface {
	SubscriptionActivated(customer *models.Customer, sub *models.Subscription) error
}
