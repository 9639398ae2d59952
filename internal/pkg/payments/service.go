package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/models"
)

// Gateway creates hosted checkout sessions with an external payment provider.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// TransactionVerifier re-checks a transaction directly with the gateway and
// reports what was actually charged. A nil transaction means not successful.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedTransaction, error)
}

// Sentinel errors the webhook controllers translate into HTTP statuses.
var (
	ErrPaymentNotFound  = errors.New("no payment matches the webhook reference")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrPriceMismatch    = errors.New("amount does not match the catalog price for the selected plan")
	ErrGatewayFailure   = errors.New("payment gateway rejected the checkout")
)

// Service owns the payment-to-subscription lifecycle: intent creation,
// webhook-driven state transitions and subscription activation.
type Service struct {
	repo     Repository
	cfg      Config
	notifier Notifier
	validate *validator.Validate
}

// NewService creates a payments service from an injected repository.
func NewService(repo Repository, cfg Config) *Service {
	return &Service{
		repo:     repo,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// NewServiceFromDB creates a payments service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config) *Service {
	return NewService(NewRepository(db), cfg)
}

// SetNotifier attaches the customer notification sink. Optional; activation
// proceeds without one.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateIntent runs the full checkout-creation flow: customer upsert, local
// Payment row in pending state, then the outbound gateway call. A gateway
// failure leaves the payment pending with the failure recorded; the caller
// surfaces a generic error to the browser.
func (s *Service) CreateIntent(ctx context.Context, gw Gateway, method string, in IntentInput) (*Intent, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid payment request: %w", err)
	}
	if price, ok := PriceFor(in.Plan, in.BillingCycle); !ok || price != in.Amount {
		return nil, ErrPriceMismatch
	}

	customer, err := s.repo.GetOrCreateCustomer(
		strings.ToLower(strings.TrimSpace(in.Email)),
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Company),
		strings.TrimSpace(in.Phone),
	)
	if err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}

	payment, err := s.createPendingPayment(customer.ID, gw.Name(), method, in)
	if err != nil {
		return nil, fmt.Errorf("payment record creation failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.httpTimeout())
	defer cancel()

	session, err := gw.CreateCheckout(callCtx, CheckoutRequest{
		Amount:        in.Amount,
		Currency:      payment.Currency,
		Reference:     payment.Reference,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Description:   fmt.Sprintf("AstraFabric Security Subscription - %s", payment.Reference),
	})
	if err != nil {
		// The payment stays pending; no automatic retry.
		if _, terr := s.repo.TransitionPayment(payment.ID, models.PaymentStatusPending, map[string]interface{}{
			"failure_reason": err.Error(),
		}); terr != nil {
			log.Errorf("[Payments] failed to record gateway failure for %s: %v", payment.Reference, terr)
		}
		log.Errorf("[Payments] %s checkout creation failed for %s: %v", gw.Name(), payment.Reference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	payment.GatewayTransactionID = session.TransactionID
	if err := s.repo.SavePayment(payment); err != nil {
		return nil, fmt.Errorf("payment update failed: %w", err)
	}

	return &Intent{
		PaymentID:            payment.ID,
		Reference:            payment.Reference,
		GatewayTransactionID: session.TransactionID,
		CheckoutURL:          session.CheckoutURL,
	}, nil
}

func (s *Service) createPendingPayment(customerID uint, gateway, method string, in IntentInput) (*models.Payment, error) {
	// The reference space is large but not infinite; retry a few times if the
	// unique index rejects a collision.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		payment := &models.Payment{
			CustomerID:    customerID,
			PaymentMethod: method,
			Gateway:       gateway,
			Reference:     NewReference(),
			Amount:        in.Amount,
			Currency:      "USD",
			Status:        models.PaymentStatusPending,
			IPAddress:     in.IPAddress,
			UserAgent:     in.UserAgent,
		}
		err := s.repo.CreatePayment(payment)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("reference collision persisted after retries: %w", lastErr)
}

// HandleNowPaymentsEvent processes one IPN delivery. The audit row is written
// before anything else so malformed payloads still leave a trace.
func (s *Service) HandleNowPaymentsEvent(ctx context.Context, req WebhookRequest) (*EventResult, error) {
	sigValid := VerifyNowPaymentsSignature(req.RawBody, req.Signature, s.cfg.NowPaymentsIPNSecret)

	logRow, err := s.openWebhookLog(models.GatewayNowPayments, req, sigValid)
	if err != nil {
		return nil, fmt.Errorf("webhook audit write failed: %w", err)
	}
	result := &EventResult{WebhookLogID: logRow.ID}

	ev, err := ParseNowPaymentsEvent(req.RawBody)
	if err != nil {
		s.finishLog(logRow.ID, models.WebhookProcessingError, err.Error())
		return result, err
	}
	result.Reference = ev.OrderID
	s.tagLog(logRow.ID, ev.OrderID, "payment_"+ev.PaymentStatus)

	if s.cfg.NowPaymentsIPNSecret != "" && !sigValid {
		s.finishLog(logRow.ID, models.WebhookProcessingFailed, "invalid webhook signature")
		return result, ErrInvalidSignature
	}

	return s.applyGatewayStatus(ctx, logRow.ID, ev.OrderID, ev.PaymentStatus, ev.PriceAmount, result)
}

// HandleFlutterwaveEvent processes one Flutterwave webhook delivery.
func (s *Service) HandleFlutterwaveEvent(ctx context.Context, req WebhookRequest) (*EventResult, error) {
	sigValid := VerifyFlutterwaveSignature(req.Signature, s.cfg.FlutterwaveSecretHash)

	logRow, err := s.openWebhookLog(models.GatewayFlutterwave, req, sigValid)
	if err != nil {
		return nil, fmt.Errorf("webhook audit write failed: %w", err)
	}
	result := &EventResult{WebhookLogID: logRow.ID}

	ev, err := ParseFlutterwaveEvent(req.RawBody)
	if err != nil {
		s.finishLog(logRow.ID, models.WebhookProcessingError, err.Error())
		return result, err
	}

	if ev.Event != "charge.completed" {
		s.finishLog(logRow.ID, models.WebhookProcessingIgnored, "")
		result.Outcome = OutcomeIgnored
		return result, nil
	}
	result.Reference = ev.Data.TxRef
	s.tagLog(logRow.ID, ev.Data.TxRef, "charge_"+ev.Data.Status)

	if s.cfg.FlutterwaveSecretHash != "" && !sigValid {
		s.finishLog(logRow.ID, models.WebhookProcessingFailed, "invalid webhook signature")
		return result, ErrInvalidSignature
	}

	// Flutterwave reports charge outcomes as successful/failed.
	status := ev.Data.Status
	switch status {
	case "successful":
		status = "finished"
	case "failed":
		// unchanged
	default:
		status = "unrecognized:" + status
	}
	return s.applyGatewayStatus(ctx, logRow.ID, ev.Data.TxRef, status, ev.Data.Amount, result)
}

// applyGatewayStatus performs the one-directional payment transition and the
// follow-on subscription side effects. Every arm is explicit; unrecognized
// statuses mutate nothing. paidAmount is the amount the gateway reported,
// zero when the payload carries none.
func (s *Service) applyGatewayStatus(ctx context.Context, logID uint, reference, gatewayStatus string, paidAmount float64, result *EventResult) (*EventResult, error) {
	payment, err := s.repo.GetPaymentByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.finishLog(logID, models.WebhookProcessingFailed, "payment not found: "+reference)
			return result, ErrPaymentNotFound
		}
		s.finishLog(logID, models.WebhookProcessingError, err.Error())
		return result, err
	}
	result.Payment = payment

	switch gatewayStatus {
	case "finished", "successful":
		if paidAmount > 0 && paidAmount < payment.Amount {
			s.finishLog(logID, models.WebhookProcessingFailed,
				fmt.Sprintf("reported amount %.2f below expected %.2f", paidAmount, payment.Amount))
			return result, ErrPriceMismatch
		}
		now := time.Now().UTC()
		changed, err := s.repo.TransitionPayment(payment.ID, models.PaymentStatusPending, map[string]interface{}{
			"status":           models.PaymentStatusCompleted,
			"gateway_status":   gatewayStatus,
			"completed_at":     now,
			"webhook_verified": true,
		})
		if err != nil {
			s.finishLog(logID, models.WebhookProcessingError, err.Error())
			return result, err
		}
		if !changed {
			s.finishLog(logID, models.WebhookProcessingIgnored, "duplicate delivery")
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
		payment.Status = models.PaymentStatusCompleted
		payment.CompletedAt = &now

		sub := s.activateSubscription(payment)
		result.Subscription = sub
		result.Outcome = OutcomeCompleted
		s.finishLog(logID, models.WebhookProcessingCompleted, "")
		return result, nil

	case "failed":
		changed, err := s.repo.TransitionPayment(payment.ID, models.PaymentStatusPending, map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"gateway_status": gatewayStatus,
		})
		if err != nil {
			s.finishLog(logID, models.WebhookProcessingError, err.Error())
			return result, err
		}
		if !changed {
			s.finishLog(logID, models.WebhookProcessingIgnored, "duplicate delivery")
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
		result.Outcome = OutcomeFailed
		s.finishLog(logID, models.WebhookProcessingFailed, "")
		return result, nil

	case "refunded":
		changed, err := s.repo.TransitionPayment(payment.ID, models.PaymentStatusCompleted, map[string]interface{}{
			"status":         models.PaymentStatusRefunded,
			"gateway_status": gatewayStatus,
		})
		if err != nil {
			s.finishLog(logID, models.WebhookProcessingError, err.Error())
			return result, err
		}
		if !changed {
			s.finishLog(logID, models.WebhookProcessingIgnored, "duplicate delivery")
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
		s.deactivateSubscription(payment)
		result.Outcome = OutcomeRefunded
		s.finishLog(logID, models.WebhookProcessingRefunded, "")
		return result, nil

	default:
		s.finishLog(logID, models.WebhookProcessingIgnored, "unrecognized gateway status: "+gatewayStatus)
		result.Outcome = OutcomeIgnored
		return result, nil
	}
}

// ConfirmFlutterwaveCallback handles the browser redirect after a card
// checkout. The redirect is attacker-reachable, so the transaction is
// verified against the gateway and matched against the local payment before
// any state changes. A valid transaction for a different reference or a
// smaller amount confirms nothing.
func (s *Service) ConfirmFlutterwaveCallback(ctx context.Context, verifier TransactionVerifier, txRef, transactionID string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.httpTimeout())
	defer cancel()

	tx, err := verifier.VerifyTransaction(callCtx, transactionID)
	if err != nil {
		return false, err
	}
	if tx == nil {
		return false, nil
	}

	payment, err := s.repo.GetPaymentByReference(txRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrPaymentNotFound
		}
		return false, err
	}

	if tx.TxRef != payment.Reference {
		log.Warnf("[Payments] callback transaction %s belongs to %q, not %q; rejecting", transactionID, tx.TxRef, payment.Reference)
		return false, nil
	}
	if tx.Amount < payment.Amount {
		log.Warnf("[Payments] callback transaction %s paid %.2f for a %.2f payment %s; rejecting", transactionID, tx.Amount, payment.Amount, payment.Reference)
		return false, nil
	}
	if tx.Currency != "" && tx.Currency != payment.Currency {
		log.Warnf("[Payments] callback transaction %s paid in %s, payment %s expects %s; rejecting", transactionID, tx.Currency, payment.Reference, payment.Currency)
		return false, nil
	}

	now := time.Now().UTC()
	changed, err := s.repo.TransitionPayment(payment.ID, models.PaymentStatusPending, map[string]interface{}{
		"status":                 models.PaymentStatusCompleted,
		"gateway_status":         "successful",
		"gateway_transaction_id": transactionID,
		"completed_at":           now,
	})
	if err != nil {
		return false, err
	}
	if changed {
		payment.Status = models.PaymentStatusCompleted
		payment.CompletedAt = &now
		s.activateSubscription(payment)
	}
	// Already-completed payments (webhook won the race) still count as success.
	return true, nil
}

// activateSubscription derives the plan from the paid amount and creates the
// linked subscription. An amount with no catalog match is an anomaly: the
// payment stays completed, nothing is created, and a SecurityEvent is filed
// for manual reconciliation.
func (s *Service) activateSubscription(payment *models.Payment) *models.Subscription {
	price, ok := PlanForAmount(payment.Amount)
	if !ok {
		log.Errorf("[Payments] no catalog plan for amount %.2f (payment %s); subscription not created", payment.Amount, payment.Reference)
		if err := s.repo.RecordAnomaly(&models.SecurityEvent{
			CustomerID:   payment.CustomerID,
			EventType:    "payment_amount_anomaly",
			Severity:     models.SeverityMedium,
			Description:  fmt.Sprintf("completed payment %s for %.2f %s matches no catalog plan", payment.Reference, payment.Amount, payment.Currency),
			TargetSystem: "billing",
		}); err != nil {
			log.Errorf("[Payments] recording anomaly for %s failed: %v", payment.Reference, err)
		}
		return nil
	}

	start := time.Now().UTC()
	end := PeriodEnd(start, price.BillingCycle)
	sub := &models.Subscription{
		CustomerID:   payment.CustomerID,
		PaymentID:    payment.ID,
		Plan:         price.Plan,
		BillingCycle: price.BillingCycle,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		Status:       models.SubscriptionStatusActive,
		StartDate:    start,
		EndDate:      &end,
	}

	created, err := s.repo.CreateSubscriptionIfAbsent(sub)
	if err != nil {
		log.Errorf("[Payments] subscription activation failed for %s: %v", payment.Reference, err)
		return nil
	}

	if _, err := s.repo.TransitionPayment(payment.ID, models.PaymentStatusCompleted, map[string]interface{}{
		"subscription_id": sub.ID,
	}); err != nil {
		log.Errorf("[Payments] linking payment %s to subscription %d failed: %v", payment.Reference, sub.ID, err)
	}
	payment.SubscriptionID = &sub.ID

	if created && s.notifier != nil {
		customer, err := s.repo.GetCustomerByID(payment.CustomerID)
		if err != nil {
			log.Errorf("[Payments] customer lookup for activation notice failed: %v", err)
		} else if err := s.notifier.SubscriptionActivated(customer, sub); err != nil {
			log.Errorf("[Payments] activation notice for %s failed: %v", customer.Email, err)
		}
	}

	log.Infof("[Payments] subscription activated: customer=%d plan=%s cycle=%s payment=%s",
		payment.CustomerID, price.Plan, price.BillingCycle, payment.Reference)
	return sub
}

// deactivateSubscription cancels the subscription linked to a refunded
// payment, ending it immediately.
func (s *Service) deactivateSubscription(payment *models.Payment) {
	if payment.SubscriptionID == nil {
		return
	}
	if err := s.repo.CancelSubscription(*payment.SubscriptionID, time.Now().UTC()); err != nil {
		log.Errorf("[Payments] subscription deactivation failed for %s: %v", payment.Reference, err)
		return
	}
	log.Infof("[Payments] subscription %d cancelled after refund of %s", *payment.SubscriptionID, payment.Reference)
}

func (s *Service) openWebhookLog(source string, req WebhookRequest, sigValid bool) (*models.WebhookLog, error) {
	valid := sigValid
	logRow := &models.WebhookLog{
		Source:           source,
		EventType:        "payment_update",
		Headers:          req.HeadersJSON,
		Payload:          string(req.RawBody),
		Signature:        req.Signature,
		SignatureValid:   &valid,
		ProcessingStatus: models.WebhookProcessingPending,
		IPAddress:        req.IPAddress,
	}
	if err := s.repo.CreateWebhookLog(logRow); err != nil {
		return nil, err
	}
	return logRow, nil
}

func (s *Service) finishLog(id uint, status, errMsg string) {
	if err := s.repo.FinishWebhookLog(id, status, errMsg); err != nil {
		log.Errorf("[Payments] webhook log %d update failed: %v", id, err)
	}
}

func (s *Service) tagLog(id uint, reference, eventType string) {
	if err := s.repo.SetWebhookLogEvent(id, reference, eventType); err != nil {
		log.Errorf("[Payments] webhook log %d tag failed: %v", id, err)
	}
}

func (s *Service) httpTimeout() time.Duration {
	if s.cfg.HTTPTimeout > 0 {
		return s.cfg.HTTPTimeout
	}
	return 30 * time.Second
}
