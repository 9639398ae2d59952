package jobqueue

import (
	"testing"
	"time"
)

func TestSendMailJobPayloadFromMap(t *testing.T) {
	payload := SendMailJobPayload{
		To:      "ada@example.com",
		Subject: "Your AstraFabric subscription is active",
		Body:    "<p>Welcome</p>",
	}

	got, err := SendMailJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("SendMailJobPayloadFromMap failed: %v", err)
	}
	if *got != payload {
		t.Fatalf("payload roundtrip mismatch: %+v", got)
	}
}

func TestArchiveWebhookLogJobPayloadFromMap(t *testing.T) {
	payload := ArchiveWebhookLogJobPayload{WebhookLogID: 42, LogUUID: "abc-123"}

	got, err := ArchiveWebhookLogJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("ArchiveWebhookLogJobPayloadFromMap failed: %v", err)
	}
	if got.WebhookLogID != 42 || got.LogUUID != "abc-123" {
		t.Fatalf("payload roundtrip mismatch: %+v", got)
	}
}

func TestJobStateTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeSendMail,
		Status:     JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: 2,
	}

	job.MarkAsProcessing()
	if job.Status != JobStatusProcessing || job.ProcessedAt == nil {
		t.Fatalf("MarkAsProcessing did not set status and timestamp")
	}

	job.MarkAsFailed("smtp unreachable")
	if job.Status != JobStatusFailed || job.RetryCount != 1 {
		t.Fatalf("MarkAsFailed state = %s/%d", job.Status, job.RetryCount)
	}
	if !job.IsRetryable() {
		t.Fatalf("job with retries left must be retryable")
	}

	job.MarkAsFailed("smtp unreachable")
	if job.IsRetryable() {
		t.Fatalf("job at max retries must not be retryable")
	}

	job.MarkAsCompleted()
	if job.Status != JobStatusCompleted || job.CompletedAt == nil || job.ErrorMsg != "" {
		t.Fatalf("MarkAsCompleted did not clear error state")
	}
}
