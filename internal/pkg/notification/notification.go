package notification

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/internal/pkg/jobqueue"
	"github.com/astrafabric/astrafabric/internal/pkg/mail"
)

// Notifier queues customer-facing emails. Delivery happens asynchronously via
// the job queue; when the queue is unavailable the mail is sent inline so an
// activation never silently loses its notice.
type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// SubscriptionActivated sends the activation email after a completed payment.
func (n *Notifier) SubscriptionActivated(customer *models.Customer, sub *models.Subscription) error {
	subject := "Your AstraFabric subscription is active"
	body := activationBody(customer, sub)
	return n.deliver(customer.Email, subject, body)
}

// ContactInquiryReceived confirms receipt of a contact form submission.
func (n *Notifier) ContactInquiryReceived(inquiry *models.ContactInquiry) error {
	subject := "We received your inquiry"
	body := fmt.Sprintf(`<h2>Thank you, %s</h2>
<p>Your message has been received. Our team typically responds within one business day.</p>`,
		htmlEscape(inquiry.Name))
	return n.deliver(inquiry.Email, subject, body)
}

// LoginLink mails a signed dashboard login link.
func (n *Notifier) LoginLink(email, link string) error {
	subject := "Your AstraFabric dashboard login link"
	body := fmt.Sprintf(`<p>Use the link below to sign in to your security dashboard. It expires in 15 minutes.</p>
<p><a href="%s">Sign in to AstraFabric</a></p>`, link)
	return n.deliver(email, subject, body)
}

func (n *Notifier) deliver(to, subject, body string) error {
	payload := jobqueue.SendMailJobPayload{To: to, Subject: subject, Body: body}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeSendMail, payload.ToMap()); err != nil {
		log.Warnf("[Notification] Queue unavailable, sending inline to %s: %v", to, err)
		return mail.SendMail(to, subject, body)
	}
	return nil
}

func activationBody(customer *models.Customer, sub *models.Subscription) string {
	planTitle := sub.Plan
	if planTitle != "" {
		planTitle = strings.ToUpper(planTitle[:1]) + planTitle[1:]
	}
	endDate := ""
	if sub.EndDate != nil {
		endDate = sub.EndDate.Format("January 2, 2006")
	}
	return fmt.Sprintf(`<h2>Welcome to AstraFabric, %s</h2>
<p>Your <strong>%s</strong> plan (%s billing) is now active.</p>
<p>Your subscription runs until <strong>%s</strong>. Sign in to your dashboard to configure monitoring for your systems.</p>`,
		htmlEscape(customer.Name), planTitle, sub.BillingCycle, endDate)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
