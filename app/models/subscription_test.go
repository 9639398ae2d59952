package models

import (
	"testing"
	"time"
)

func TestSubscriptionDaysRemaining(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	end := now.Add(30 * 24 * time.Hour)
	sub := Subscription{EndDate: &end}
	if got := sub.DaysRemaining(now); got != 30 {
		t.Fatalf("expected 30 days remaining, got %d", got)
	}

	past := now.Add(-24 * time.Hour)
	sub = Subscription{EndDate: &past}
	if got := sub.DaysRemaining(now); got != 0 {
		t.Fatalf("expected expired subscription to report 0, got %d", got)
	}

	sub = Subscription{}
	if got := sub.DaysRemaining(now); got != 0 {
		t.Fatalf("expected missing end date to report 0, got %d", got)
	}
}

func TestPaymentIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: PaymentStatusPending, want: false},
		{status: PaymentStatusCompleted, want: true},
		{status: PaymentStatusFailed, want: true},
		{status: PaymentStatusCancelled, want: true},
		{status: PaymentStatusRefunded, want: true},
	}

	for _, tt := range tests {
		p := Payment{Status: tt.status}
		if got := p.IsTerminal(); got != tt.want {
			t.Fatalf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAdminUserLockout(t *testing.T) {
	now := time.Now()
	hash, err := HashAdminPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	admin := AdminUser{PasswordHash: hash}

	for i := 0; i < 5; i++ {
		if admin.CheckPassword("wrong", now) {
			t.Fatalf("expected wrong password to fail")
		}
	}
	if !admin.IsLocked(now) {
		t.Fatalf("expected account to be locked after 5 failures")
	}

	if !admin.CheckPassword("correct horse", now) {
		t.Fatalf("expected correct password to verify")
	}
	if admin.FailedAttempts != 0 || admin.LockedUntil != nil {
		t.Fatalf("expected successful login to reset lockout state")
	}
}
