package constants

// Static route constants
const (
	PublicRoute    = "/"
	PricingRoute   = "/pricing"
	FeaturesRoute  = "/features"
	ContactRoute   = "/contact"
	SubscribeRoute = "/subscribe"
	DashboardRoute = "/dashboard"
	AdminRoute     = "/admin"

	// Gateway notification endpoints. Registered outside the CSRF group
	// because gateways POST to them directly.
	WebhookNowPaymentsRoute = "/webhooks/nowpayments"
	WebhookFlutterwaveRoute = "/webhooks/flutterwave"

	CryptoInitiateRoute      = "/payment/crypto/initiate"
	CardInitiateRoute        = "/payment/card/initiate"
	FlutterwaveCallbackRoute = "/payment/flutterwave/callback"
	PaymentSuccessRoute      = "/payment/success"
	PaymentCancelRoute       = "/payment/cancel"
)
