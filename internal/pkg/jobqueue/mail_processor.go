package jobqueue

import (
	"fmt"

	"github.com/astrafabric/astrafabric/internal/pkg/mail"
)

// processSendMailJob delivers one queued email via SMTP.
func (q *Queue) processSendMailJob(job *Job) error {
	payload, err := SendMailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid send_mail payload: %w", err)
	}
	if payload.To == "" {
		return fmt.Errorf("send_mail payload has no recipient")
	}

	return mail.SendMail(payload.To, payload.Subject, payload.Body)
}
