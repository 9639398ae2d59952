package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/astrafabric/astrafabric/internal/pkg/payments"
)

// HandleNowPaymentsWebhook receives NOWPayments IPN callbacks. The raw body
// and headers are logged before any processing so that even rejected
// deliveries leave an audit trail.
func HandleNowPaymentsWebhook(c *fiber.Ctx) error {
	req := payments.WebhookRequest{
		RawBody:     c.Body(),
		Signature:   c.Get("x-nowpayments-sig"),
		HeadersJSON: headersJSON(c),
		IPAddress:   GetClientIP(c),
	}

	result, err := paymentService.HandleNowPaymentsEvent(c.Context(), req)
	return respondToGateway(c, "nowpayments", result, err)
}

// HandleFlutterwaveWebhook receives Flutterwave webhook events
func HandleFlutterwaveWebhook(c *fiber.Ctx) error {
	req := payments.WebhookRequest{
		RawBody:     c.Body(),
		Signature:   c.Get("verif-hash"),
		HeadersJSON: headersJSON(c),
		IPAddress:   GetClientIP(c),
	}

	result, err := paymentService.HandleFlutterwaveEvent(c.Context(), req)
	return respondToGateway(c, "flutterwave", result, err)
}

// respondToGateway maps processing results onto HTTP status codes: 401 for
// bad signatures, 400 for payloads we cannot parse, 404 for references no
// local payment matches, 500 for internal failures.
func respondToGateway(c *fiber.Ctx, source string, result *payments.EventResult, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			log.Warnf("[Webhook] %s delivery rejected, bad signature (ip %s)", source, GetClientIP(c))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "invalid signature"})
		case errors.Is(err, payments.ErrMissingReference):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "missing reference"})
		case errors.Is(err, payments.ErrMalformedPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "malformed payload"})
		case errors.Is(err, payments.ErrPriceMismatch):
			log.Warnf("[Webhook] %s delivery rejected, reported amount mismatch (ip %s)", source, GetClientIP(c))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "amount mismatch"})
		case errors.Is(err, payments.ErrPaymentNotFound):
			ref := ""
			if result != nil {
				ref = result.Reference
			}
			log.Warnf("[Webhook] %s delivery for unknown reference %s", source, ref)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "unknown reference"})
		default:
			log.Errorf("[Webhook] %s processing failed: %v", source, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "processing error"})
		}
	}

	log.Infof("[Webhook] %s delivery for %s processed (%s)", source, result.Reference, result.Outcome)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": result.Outcome})
}

// headersJSON serializes the request headers for the webhook audit log
func headersJSON(c *fiber.Ctx) string {
	raw, err := json.Marshal(c.GetReqHeaders())
	if err != nil {
		return "{}"
	}
	return string(raw)
}
