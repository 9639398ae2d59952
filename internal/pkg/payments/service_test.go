package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/models"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	customers     map[string]*models.Customer
	payments      map[uint]*models.Payment
	subscriptions map[uint]*models.Subscription
	webhookLogs   map[uint]*models.WebhookLog
	anomalies     []*models.SecurityEvent
	nextID        uint

	failCreatePayment bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers:     make(map[string]*models.Customer),
		payments:      make(map[uint]*models.Payment),
		subscriptions: make(map[uint]*models.Subscription),
		webhookLogs:   make(map[uint]*models.WebhookLog),
	}
}

func (r *fakeRepo) nextUint() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) GetOrCreateCustomer(email, name, company, phone string) (*models.Customer, error) {
	if c, ok := r.customers[email]; ok {
		return c, nil
	}
	c := &models.Customer{Email: email, Name: name, Company: company, Phone: phone, IsActive: true}
	c.ID = r.nextUint()
	r.customers[email] = c
	return c, nil
}

func (r *fakeRepo) GetCustomerByID(id uint) (*models.Customer, error) {
	for _, c := range r.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreatePayment(p *models.Payment) error {
	if r.failCreatePayment {
		return errors.New("insert failed")
	}
	for _, existing := range r.payments {
		if existing.Reference == p.Reference {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.nextUint()
	r.payments[p.ID] = p
	return nil
}

func (r *fakeRepo) SavePayment(p *models.Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *fakeRepo) GetPaymentByReference(reference string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) TransitionPayment(id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	p, ok := r.payments[id]
	if !ok || p.Status != fromStatus {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		p.Status = v.(string)
	}
	if v, ok := updates["gateway_status"]; ok {
		p.GatewayStatus = v.(string)
	}
	if v, ok := updates["gateway_transaction_id"]; ok {
		p.GatewayTransactionID = v.(string)
	}
	if v, ok := updates["completed_at"]; ok {
		t := v.(time.Time)
		p.CompletedAt = &t
	}
	if v, ok := updates["webhook_verified"]; ok {
		p.WebhookVerified = v.(bool)
	}
	if v, ok := updates["failure_reason"]; ok {
		p.FailureReason = v.(string)
	}
	if v, ok := updates["subscription_id"]; ok {
		id := v.(uint)
		p.SubscriptionID = &id
	}
	return true, nil
}

func (r *fakeRepo) CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error) {
	for _, existing := range r.subscriptions {
		if existing.PaymentID == sub.PaymentID {
			*sub = *existing
			return false, nil
		}
	}
	sub.ID = r.nextUint()
	r.subscriptions[sub.ID] = sub
	return true, nil
}

func (r *fakeRepo) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	if s, ok := r.subscriptions[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CancelSubscription(id uint, endDate time.Time) error {
	s, ok := r.subscriptions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = models.SubscriptionStatusCancelled
	s.EndDate = &endDate
	return nil
}

func (r *fakeRepo) CreateWebhookLog(l *models.WebhookLog) error {
	l.ID = r.nextUint()
	r.webhookLogs[l.ID] = l
	return nil
}

func (r *fakeRepo) SetWebhookLogEvent(id uint, paymentReference, eventType string) error {
	l, ok := r.webhookLogs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.PaymentReference = paymentReference
	l.EventType = eventType
	return nil
}

func (r *fakeRepo) FinishWebhookLog(id uint, processingStatus, errorMessage string) error {
	l, ok := r.webhookLogs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.ProcessingStatus = processingStatus
	l.ErrorMessage = errorMessage
	return nil
}

func (r *fakeRepo) RecordAnomaly(event *models.SecurityEvent) error {
	event.ID = r.nextUint()
	r.anomalies = append(r.anomalies, event)
	return nil
}

// fakeGateway returns a canned checkout session or a canned error.
type fakeGateway struct {
	session *CheckoutSession
	err     error
	gotReq  CheckoutRequest
}

func (g *fakeGateway) Name() string { return models.GatewayNowPayments }

func (g *fakeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.gotReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type fakeVerifier struct {
	tx  *VerifiedTransaction
	err error
}

func (v *fakeVerifier) VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedTransaction, error) {
	return v.tx, v.err
}

// verifierFor returns a fake whose gateway record matches the payment.
func verifierFor(p *models.Payment) *fakeVerifier {
	return &fakeVerifier{tx: &VerifiedTransaction{TxRef: p.Reference, Amount: p.Amount, Currency: p.Currency}}
}

func testConfig() Config {
	return Config{
		BaseURL:               "https://astrafabric.test",
		NowPaymentsIPNSecret:  "ipn-secret",
		FlutterwaveSecretHash: "flw-hash",
		HTTPTimeout:           5 * time.Second,
	}
}

func validIntent() IntentInput {
	return IntentInput{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Plan:         models.PlanProfessional,
		BillingCycle: models.BillingCycleMonthly,
		Amount:       199.00,
	}
}

func TestCreateIntent_Success(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	gw := &fakeGateway{session: &CheckoutSession{TransactionID: "tx-1", CheckoutURL: "https://pay.example/tx-1"}}

	intent, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, validIntent())
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if intent.CheckoutURL != "https://pay.example/tx-1" {
		t.Fatalf("unexpected checkout URL %q", intent.CheckoutURL)
	}
	if !IsLocalReference(intent.Reference) {
		t.Fatalf("reference %q missing local prefix", intent.Reference)
	}
	if gw.gotReq.Reference != intent.Reference {
		t.Fatalf("gateway saw reference %q, want %q", gw.gotReq.Reference, intent.Reference)
	}

	payment := repo.payments[intent.PaymentID]
	if payment == nil {
		t.Fatalf("payment row not created")
	}
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending", payment.Status)
	}
	if payment.GatewayTransactionID != "tx-1" {
		t.Fatalf("gateway transaction id not recorded")
	}
	if _, ok := repo.customers["ada@example.com"]; !ok {
		t.Fatalf("customer not upserted")
	}
}

func TestCreateIntent_ReusesExistingCustomer(t *testing.T) {
	repo := newFakeRepo()
	existing, _ := repo.GetOrCreateCustomer("ada@example.com", "Ada", "", "")
	svc := NewService(repo, testConfig())
	gw := &fakeGateway{session: &CheckoutSession{TransactionID: "tx-2", CheckoutURL: "u"}}

	intent, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, validIntent())
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if repo.payments[intent.PaymentID].CustomerID != existing.ID {
		t.Fatalf("payment not linked to existing customer")
	}
	if len(repo.customers) != 1 {
		t.Fatalf("expected a single customer row, got %d", len(repo.customers))
	}
}

func TestCreateIntent_GatewayFailureLeavesPaymentPending(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	gw := &fakeGateway{err: errors.New("upstream 502")}

	_, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, validIntent())
	if !errors.Is(err, ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("expected the pending payment row to remain")
	}
	for _, p := range repo.payments {
		if p.Status != models.PaymentStatusPending {
			t.Fatalf("payment status = %q, want pending", p.Status)
		}
		if p.FailureReason == "" {
			t.Fatalf("gateway failure not recorded")
		}
	}
}

func TestCreateIntent_RejectsPriceMismatch(t *testing.T) {
	svc := NewService(newFakeRepo(), testConfig())
	gw := &fakeGateway{session: &CheckoutSession{}}

	in := validIntent()
	in.Amount = 150.00
	if _, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, in); !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got %v", err)
	}
}

func TestCreateIntent_RejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo(), testConfig())
	gw := &fakeGateway{session: &CheckoutSession{}}

	in := validIntent()
	in.Email = "not-an-email"
	if _, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, in); err == nil {
		t.Fatalf("expected validation error")
	}

	in = validIntent()
	in.Plan = "platinum"
	if _, err := svc.CreateIntent(context.Background(), gw, models.PaymentMethodCrypto, in); err == nil {
		t.Fatalf("expected validation error for unknown plan")
	}
}

// seedPendingPayment creates a customer plus a pending payment the webhook
// tests can target.
func seedPendingPayment(t *testing.T, repo *fakeRepo, amount float64) *models.Payment {
	t.Helper()
	customer, _ := repo.GetOrCreateCustomer("ada@example.com", "Ada", "", "")
	p := &models.Payment{
		CustomerID:    customer.ID,
		PaymentMethod: models.PaymentMethodCrypto,
		Gateway:       models.GatewayNowPayments,
		Reference:     NewReference(),
		Amount:        amount,
		Currency:      "USD",
		Status:        models.PaymentStatusPending,
	}
	if err := repo.CreatePayment(p); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func signedNowPaymentsRequest(body []byte, secret string) WebhookRequest {
	return WebhookRequest{
		RawBody:   body,
		Signature: nowPaymentsSig(body, secret),
	}
}

func TestHandleNowPaymentsEvent_FinishedActivatesSubscription(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 199.00)

	body := []byte(fmt.Sprintf(`{"payment_id":4321,"payment_status":"finished","order_id":%q,"price_amount":199.00}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if err != nil {
		t.Fatalf("HandleNowPaymentsEvent failed: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", res.Outcome)
	}

	stored := repo.payments[payment.ID]
	if stored.Status != models.PaymentStatusCompleted {
		t.Fatalf("payment status = %q, want completed", stored.Status)
	}
	if stored.CompletedAt == nil || !stored.WebhookVerified {
		t.Fatalf("completion metadata not set")
	}

	if res.Subscription == nil {
		t.Fatalf("subscription not created")
	}
	if res.Subscription.Plan != models.PlanProfessional || res.Subscription.BillingCycle != models.BillingCycleMonthly {
		t.Fatalf("subscription = %s/%s, want professional/monthly", res.Subscription.Plan, res.Subscription.BillingCycle)
	}
	if res.Subscription.EndDate == nil || res.Subscription.EndDate.Sub(res.Subscription.StartDate) != 30*24*time.Hour {
		t.Fatalf("subscription period is not 30 days")
	}
	if stored.SubscriptionID == nil || *stored.SubscriptionID != res.Subscription.ID {
		t.Fatalf("payment not linked to subscription")
	}

	logRow := repo.webhookLogs[res.WebhookLogID]
	if logRow == nil || logRow.ProcessingStatus != models.WebhookProcessingCompleted {
		t.Fatalf("webhook log not finished as completed")
	}
	if logRow.SignatureValid == nil || !*logRow.SignatureValid {
		t.Fatalf("webhook log should record a valid signature")
	}
}

func TestHandleNowPaymentsEvent_YearlyAmountActivatesYearly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 2990.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if err != nil {
		t.Fatalf("HandleNowPaymentsEvent failed: %v", err)
	}
	if res.Subscription == nil || res.Subscription.Plan != models.PlanEnterprise || res.Subscription.BillingCycle != models.BillingCycleYearly {
		t.Fatalf("expected enterprise/yearly subscription")
	}
	if res.Subscription.EndDate.Sub(res.Subscription.StartDate) != 365*24*time.Hour {
		t.Fatalf("subscription period is not 365 days")
	}
}

func TestHandleNowPaymentsEvent_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	req := signedNowPaymentsRequest(body, "ipn-secret")

	if _, err := svc.HandleNowPaymentsEvent(context.Background(), req); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	res, err := svc.HandleNowPaymentsEvent(context.Background(), req)
	if err != nil {
		t.Fatalf("second delivery errored: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %q, want duplicate", res.Outcome)
	}
	if len(repo.subscriptions) != 1 {
		t.Fatalf("expected exactly one subscription, got %d", len(repo.subscriptions))
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusCompleted {
		t.Fatalf("payment status changed on duplicate delivery")
	}
}

func TestHandleNowPaymentsEvent_InvalidSignatureRejectsStateChange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	req := WebhookRequest{RawBody: body, Signature: "deadbeef"}

	_, err := svc.HandleNowPaymentsEvent(context.Background(), req)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("payment mutated despite invalid signature")
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("subscription created despite invalid signature")
	}

	// The delivery is still auditable.
	if len(repo.webhookLogs) != 1 {
		t.Fatalf("expected one webhook log row")
	}
	for _, l := range repo.webhookLogs {
		if l.ProcessingStatus != models.WebhookProcessingFailed {
			t.Fatalf("webhook log status = %q, want failed", l.ProcessingStatus)
		}
		if l.SignatureValid == nil || *l.SignatureValid {
			t.Fatalf("webhook log should record an invalid signature")
		}
	}
}

func TestHandleNowPaymentsEvent_UnconfiguredSecretStillProcesses(t *testing.T) {
	repo := newFakeRepo()
	cfg := testConfig()
	cfg.NowPaymentsIPNSecret = ""
	svc := NewService(repo, cfg)
	payment := seedPendingPayment(t, repo, 99.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), WebhookRequest{RawBody: body})
	if err != nil {
		t.Fatalf("HandleNowPaymentsEvent failed: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", res.Outcome)
	}
	logRow := repo.webhookLogs[res.WebhookLogID]
	if logRow.SignatureValid == nil || *logRow.SignatureValid {
		t.Fatalf("expected signature_valid=false when no secret is configured")
	}
}

func TestHandleNowPaymentsEvent_UnknownReference(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	body := []byte(`{"payment_status":"finished","order_id":"AF-DEADBEEF"}`)
	_, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	for _, l := range repo.webhookLogs {
		if l.ProcessingStatus != models.WebhookProcessingFailed {
			t.Fatalf("webhook log status = %q, want failed", l.ProcessingStatus)
		}
	}
}

func TestHandleNowPaymentsEvent_MalformedBodyStillLogged(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	body := []byte(`{not json`)
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	logRow := repo.webhookLogs[res.WebhookLogID]
	if logRow == nil {
		t.Fatalf("malformed delivery must still be logged")
	}
	if logRow.ProcessingStatus != models.WebhookProcessingError {
		t.Fatalf("webhook log status = %q, want error", logRow.ProcessingStatus)
	}
	if logRow.Payload != string(body) {
		t.Fatalf("raw payload not preserved in the log")
	}
}

func TestHandleNowPaymentsEvent_MissingReference(t *testing.T) {
	svc := NewService(newFakeRepo(), testConfig())
	body := []byte(`{"payment_status":"finished"}`)
	_, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference, got %v", err)
	}
}

func TestHandleNowPaymentsEvent_UnknownAmountAnomaly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 142.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if err != nil {
		t.Fatalf("HandleNowPaymentsEvent failed: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusCompleted {
		t.Fatalf("payment must stay completed on amount anomaly")
	}
	if res.Subscription != nil || len(repo.subscriptions) != 0 {
		t.Fatalf("no subscription may be created for an unknown amount")
	}
	if len(repo.anomalies) != 1 {
		t.Fatalf("expected one recorded anomaly, got %d", len(repo.anomalies))
	}
	anomaly := repo.anomalies[0]
	if anomaly.EventType != "payment_amount_anomaly" || anomaly.CustomerID != payment.CustomerID {
		t.Fatalf("anomaly misfiled: type=%q customer=%d", anomaly.EventType, anomaly.CustomerID)
	}
}

func TestHandleNowPaymentsEvent_UnderreportedAmountRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 299.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q,"price_amount":9.99}`, payment.Reference))
	_, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("err = %v, want ErrPriceMismatch", err)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("underreported amount must not complete the payment")
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("no subscription may be created for an underreported amount")
	}
}

func TestHandleNowPaymentsEvent_FailedMarksPaymentFailed(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"failed","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
	if err != nil {
		t.Fatalf("HandleNowPaymentsEvent failed: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", repo.payments[payment.ID].Status)
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("failed payment must not create a subscription")
	}
}

func TestHandleNowPaymentsEvent_RefundDeactivatesSubscription(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	finish := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	if _, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(finish, "ipn-secret")); err != nil {
		t.Fatalf("finish delivery failed: %v", err)
	}

	refund := []byte(fmt.Sprintf(`{"payment_status":"refunded","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(refund, "ipn-secret"))
	if err != nil {
		t.Fatalf("refund delivery failed: %v", err)
	}
	if res.Outcome != OutcomeRefunded {
		t.Fatalf("outcome = %q, want refunded", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusRefunded {
		t.Fatalf("payment status = %q, want refunded", repo.payments[payment.ID].Status)
	}
	for _, sub := range repo.subscriptions {
		if sub.Status != models.SubscriptionStatusCancelled {
			t.Fatalf("subscription status = %q, want cancelled", sub.Status)
		}
	}
}

func TestHandleNowPaymentsEvent_RefundBeforeCompletionIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	refund := []byte(fmt.Sprintf(`{"payment_status":"refunded","order_id":%q}`, payment.Reference))
	res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(refund, "ipn-secret"))
	if err != nil {
		t.Fatalf("refund delivery errored: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %q, want duplicate", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("pending payment must not move to refunded")
	}
}

func TestHandleNowPaymentsEvent_UnrecognizedStatusIgnored(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	for _, status := range []string{"waiting", "confirming", "partially_paid", "expired"} {
		body := []byte(fmt.Sprintf(`{"payment_status":%q,"order_id":%q}`, status, payment.Reference))
		res, err := svc.HandleNowPaymentsEvent(context.Background(), signedNowPaymentsRequest(body, "ipn-secret"))
		if err != nil {
			t.Fatalf("delivery for %q errored: %v", status, err)
		}
		if res.Outcome != OutcomeIgnored {
			t.Fatalf("outcome for %q = %q, want ignored", status, res.Outcome)
		}
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("intermediate statuses must not mutate the payment")
	}
}

func TestHandleFlutterwaveEvent_SuccessfulCharge(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 199.00)

	body := []byte(fmt.Sprintf(`{"event":"charge.completed","data":{"id":77,"tx_ref":%q,"status":"successful","amount":199.00}}`, payment.Reference))
	res, err := svc.HandleFlutterwaveEvent(context.Background(), WebhookRequest{RawBody: body, Signature: "flw-hash"})
	if err != nil {
		t.Fatalf("HandleFlutterwaveEvent failed: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusCompleted {
		t.Fatalf("payment not completed")
	}
	if res.Subscription == nil {
		t.Fatalf("subscription not created")
	}
}

func TestHandleFlutterwaveEvent_WrongHashRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 199.00)

	body := []byte(fmt.Sprintf(`{"event":"charge.completed","data":{"tx_ref":%q,"status":"successful"}}`, payment.Reference))
	_, err := svc.HandleFlutterwaveEvent(context.Background(), WebhookRequest{RawBody: body, Signature: "wrong"})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("payment mutated despite invalid hash")
	}
}

func TestHandleFlutterwaveEvent_NonChargeEventIgnored(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	body := []byte(`{"event":"transfer.completed","data":{"id":9}}`)
	res, err := svc.HandleFlutterwaveEvent(context.Background(), WebhookRequest{RawBody: body, Signature: "flw-hash"})
	if err != nil {
		t.Fatalf("HandleFlutterwaveEvent failed: %v", err)
	}
	if res.Outcome != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", res.Outcome)
	}
}

func TestHandleFlutterwaveEvent_FailedCharge(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 199.00)

	body := []byte(fmt.Sprintf(`{"event":"charge.completed","data":{"tx_ref":%q,"status":"failed"}}`, payment.Reference))
	res, err := svc.HandleFlutterwaveEvent(context.Background(), WebhookRequest{RawBody: body, Signature: "flw-hash"})
	if err != nil {
		t.Fatalf("HandleFlutterwaveEvent failed: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", res.Outcome)
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusFailed {
		t.Fatalf("payment not failed")
	}
}

func TestConfirmFlutterwaveCallback(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	ok, err := svc.ConfirmFlutterwaveCallback(context.Background(), verifierFor(payment), payment.Reference, "flw-tx-9")
	if err != nil || !ok {
		t.Fatalf("ConfirmFlutterwaveCallback = %v/%v, want true/nil", ok, err)
	}
	stored := repo.payments[payment.ID]
	if stored.Status != models.PaymentStatusCompleted {
		t.Fatalf("payment not completed after verified callback")
	}
	if stored.GatewayTransactionID != "flw-tx-9" {
		t.Fatalf("transaction id not recorded")
	}
	if len(repo.subscriptions) != 1 {
		t.Fatalf("subscription not activated")
	}

	// A second verified callback (or a racing webhook) must not double-activate.
	ok, err = svc.ConfirmFlutterwaveCallback(context.Background(), verifierFor(payment), payment.Reference, "flw-tx-9")
	if err != nil || !ok {
		t.Fatalf("repeat callback = %v/%v, want true/nil", ok, err)
	}
	if len(repo.subscriptions) != 1 {
		t.Fatalf("repeat callback created a second subscription")
	}
}

func TestConfirmFlutterwaveCallback_UnverifiedTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 99.00)

	ok, err := svc.ConfirmFlutterwaveCallback(context.Background(), &fakeVerifier{}, payment.Reference, "flw-tx-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("unverified transaction must not confirm")
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("payment mutated without gateway verification")
	}
}

func TestConfirmFlutterwaveCallback_ForeignTransactionRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 2990.00)

	// A real, successful, cheap transaction belonging to a different
	// reference must not complete this payment.
	cheap := &fakeVerifier{tx: &VerifiedTransaction{TxRef: "AF-OTHER01", Amount: 99.00, Currency: "USD"}}
	ok, err := svc.ConfirmFlutterwaveCallback(context.Background(), cheap, payment.Reference, "flw-tx-555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("transaction for another reference confirmed the payment")
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("payment completed from a foreign transaction")
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("subscription activated from a foreign transaction")
	}
}

func TestConfirmFlutterwaveCallback_UnderpaidTransactionRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	payment := seedPendingPayment(t, repo, 2990.00)

	underpaid := &fakeVerifier{tx: &VerifiedTransaction{TxRef: payment.Reference, Amount: 99.00, Currency: "USD"}}
	ok, err := svc.ConfirmFlutterwaveCallback(context.Background(), underpaid, payment.Reference, "flw-tx-556")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("underpaid transaction confirmed the payment")
	}
	if repo.payments[payment.ID].Status != models.PaymentStatusPending {
		t.Fatalf("payment completed for less than its amount")
	}

	wrongCurrency := &fakeVerifier{tx: &VerifiedTransaction{TxRef: payment.Reference, Amount: payment.Amount, Currency: "NGN"}}
	ok, err = svc.ConfirmFlutterwaveCallback(context.Background(), wrongCurrency, payment.Reference, "flw-tx-557")
	if err != nil || ok {
		t.Fatalf("wrong-currency transaction = %v/%v, want false/nil", ok, err)
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("subscription activated despite rejected callbacks")
	}
}

// captureNotifier records activation notices.
type captureNotifier struct {
	notices int
	lastSub *models.Subscription
}

func (n *captureNotifier) SubscriptionActivated(customer *models.Customer, sub *models.Subscription) error {
	n.notices++
	n.lastSub = sub
	return nil
}

func TestActivationNotifiesOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())
	notifier := &captureNotifier{}
	svc.SetNotifier(notifier)
	payment := seedPendingPayment(t, repo, 990.00)

	body := []byte(fmt.Sprintf(`{"payment_status":"finished","order_id":%q}`, payment.Reference))
	req := signedNowPaymentsRequest(body, "ipn-secret")

	if _, err := svc.HandleNowPaymentsEvent(context.Background(), req); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if _, err := svc.HandleNowPaymentsEvent(context.Background(), req); err != nil {
		t.Fatalf("second delivery errored: %v", err)
	}

	if notifier.notices != 1 {
		t.Fatalf("expected exactly one activation notice, got %d", notifier.notices)
	}
	if notifier.lastSub == nil || notifier.lastSub.Plan != models.PlanEssential {
		t.Fatalf("notice carried the wrong subscription")
	}
}
