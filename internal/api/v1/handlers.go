package apiv1

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/repository"
	"github.com/astrafabric/astrafabric/internal/pkg/payments"
)

// APIServer implements the service-to-service v1 API. All routes except ping
// sit behind the static service key middleware attached in the router.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches the v1 routes to the given router group
func RegisterHandlers(r fiber.Router, s *APIServer, protected ...fiber.Handler) {
	r.Get("/ping", s.GetPing)

	for _, mw := range protected {
		r.Use(mw)
	}
	r.Get("/payments/:reference", s.GetPaymentStatus)
	r.Get("/customers/:email/subscription", s.GetCustomerSubscription)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPaymentStatus returns the current state of a payment by its reference
func (s *APIServer) GetPaymentStatus(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if !payments.IsLocalReference(reference) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "reference is not in AF-XXXXXXXX format",
		})
	}

	payment, err := repository.GetGlobalRepositories().Payment.GetByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "no payment matches this reference",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal",
			Message: "payment lookup failed",
		})
	}

	return c.JSON(PaymentStatus{
		Reference:   payment.Reference,
		Status:      payment.Status,
		Gateway:     payment.Gateway,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		CreatedAt:   payment.CreatedAt,
		CompletedAt: payment.CompletedAt,
	})
}

// GetCustomerSubscription returns the active subscription for a customer
// email. Used by the monitoring platform to gate scan scheduling.
func (s *APIServer) GetCustomerSubscription(c *fiber.Ctx) error {
	email := c.Params("email")
	repos := repository.GetGlobalRepositories()

	customer, err := repos.Customer.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "no customer with this email",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal",
			Message: "customer lookup failed",
		})
	}

	sub, err := repos.Subscription.GetActiveByCustomerID(customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "customer has no active subscription",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal",
			Message: "subscription lookup failed",
		})
	}

	return c.JSON(SubscriptionStatus{
		UUID:          sub.UUID,
		Plan:          sub.Plan,
		BillingCycle:  sub.BillingCycle,
		Status:        sub.Status,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		DaysRemaining: sub.DaysRemaining(time.Now()),
	})
}
