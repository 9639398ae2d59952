package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/payments"
)

var (
	paymentService     *payments.Service
	nowPaymentsGateway *payments.NowPaymentsClient
	flutterwaveGateway *payments.FlutterwaveClient
)

// InitPaymentControllers wires the payments service and gateway clients into
// the handler package. Called once from router setup.
func InitPaymentControllers(svc *payments.Service, np *payments.NowPaymentsClient, flw *payments.FlutterwaveClient) {
	paymentService = svc
	nowPaymentsGateway = np
	flutterwaveGateway = flw
}

// HandleSubscribePage renders the checkout form with the price catalog
func HandleSubscribePage(c *fiber.Ctx) error {
	data := baseViewData(c, "Subscribe | AstraFabric")
	data["Prices"] = payments.PriceTable()
	data["Plan"] = c.Query("plan", "professional")
	data["Billing"] = c.Query("billing", "monthly")
	return c.Render("pages/subscribe", data, "layouts/main")
}

// HandleSubscribeSubmit starts a checkout with the gateway picked in the
// form and redirects the customer to the hosted payment page.
func HandleSubscribeSubmit(c *fiber.Ctx) error {
	return initiateCheckout(c, c.FormValue("method", "card"))
}

// HandleCryptoInitiate starts a NOWPayments checkout.
func HandleCryptoInitiate(c *fiber.Ctx) error {
	return initiateCheckout(c, "crypto")
}

// HandleCardInitiate starts a Flutterwave checkout.
func HandleCardInitiate(c *fiber.Ctx) error {
	return initiateCheckout(c, "card")
}

func initiateCheckout(c *fiber.Ctx, method string) error {
	amount, _ := strconv.ParseFloat(c.FormValue("amount"), 64)
	in := payments.IntentInput{
		Name:         c.FormValue("name"),
		Email:        c.FormValue("email"),
		Company:      c.FormValue("company"),
		Phone:        c.FormValue("phone"),
		Plan:         c.FormValue("plan"),
		BillingCycle: c.FormValue("billing"),
		Amount:       amount,
		IPAddress:    GetClientIP(c),
		UserAgent:    c.Get("User-Agent"),
	}

	var gw payments.Gateway
	switch method {
	case "crypto":
		gw = nowPaymentsGateway
	case "card":
		gw = flutterwaveGateway
	default:
		fm := fiber.Map{"type": "error", "message": "Unknown payment method."}
		return flash.WithError(c, fm).Redirect("/subscribe")
	}

	intent, err := paymentService.CreateIntent(c.Context(), gw, method, in)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrPriceMismatch):
			fm := fiber.Map{"type": "error", "message": "The selected plan and amount do not match."}
			return flash.WithError(c, fm).Redirect("/subscribe")
		case errors.Is(err, payments.ErrGatewayFailure):
			log.Errorf("[Payment] gateway %s unavailable: %v", gw.Name(), err)
			fm := fiber.Map{"type": "error", "message": "The payment provider is currently unavailable. Please try again."}
			return flash.WithError(c, fm).Redirect("/subscribe")
		default:
			fm := fiber.Map{"type": "error", "message": "Please check your details and try again."}
			return flash.WithError(c, fm).Redirect("/subscribe")
		}
	}

	log.Infof("[Payment] checkout %s created via %s", intent.Reference, gw.Name())
	return c.Redirect(intent.CheckoutURL, fiber.StatusSeeOther)
}

// HandlePaymentSuccess renders the post-checkout landing page. Activation
// happens through the webhook, so this page only confirms receipt.
func HandlePaymentSuccess(c *fiber.Ctx) error {
	data := baseViewData(c, "Payment Received | AstraFabric")
	data["SupportEmail"] = env.GetEnv("SUPPORT_EMAIL", "support@astrafabric.com")
	return c.Render("pages/payment_success", data, "layouts/main")
}

// HandlePaymentCancel renders the cancelled-checkout page
func HandlePaymentCancel(c *fiber.Ctx) error {
	data := baseViewData(c, "Payment Cancelled | AstraFabric")
	return c.Render("pages/payment_cancel", data, "layouts/main")
}

// HandleFlutterwaveCallback completes a card checkout from the browser
// redirect. The transaction is verified server side before any state change;
// the authoritative signal stays the webhook.
func HandleFlutterwaveCallback(c *fiber.Ctx) error {
	status := c.Query("status")
	txRef := c.Query("tx_ref")
	transactionID := c.Query("transaction_id")

	if status == "cancelled" {
		return c.Redirect("/payment/cancel", fiber.StatusSeeOther)
	}
	if txRef == "" || transactionID == "" {
		fm := fiber.Map{"type": "error", "message": "Invalid payment callback."}
		return flash.WithError(c, fm).Redirect("/subscribe")
	}

	confirmed, err := paymentService.ConfirmFlutterwaveCallback(c.Context(), flutterwaveGateway, txRef, transactionID)
	if err != nil {
		log.Errorf("[Payment] callback verification for %s failed: %v", txRef, err)
		fm := fiber.Map{"type": "error", "message": "We could not verify your payment yet. You will receive an email once it is confirmed."}
		return flash.WithError(c, fm).Redirect("/payment/success")
	}
	if !confirmed {
		fm := fiber.Map{"type": "error", "message": "Payment was not successful."}
		return flash.WithError(c, fm).Redirect("/payment/cancel")
	}

	return c.Redirect("/payment/success", fiber.StatusSeeOther)
}
