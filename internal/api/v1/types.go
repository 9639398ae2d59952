package apiv1

import "time"

// Pong is the health check response
type Pong struct {
	Ping string `json:"ping"`
}

// PaymentStatus is the public shape of one payment attempt. Gateway
// transaction ids and customer internals stay private.
type PaymentStatus struct {
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	Gateway     string     `json:"gateway"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SubscriptionStatus is the public shape of one subscription
type SubscriptionStatus struct {
	UUID          string     `json:"uuid"`
	Plan          string     `json:"plan"`
	BillingCycle  string     `json:"billing_cycle"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

// ErrorResponse is the uniform error envelope for the v1 API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
