package payments

import (
	"testing"
	"time"

	"github.com/astrafabric/astrafabric/app/models"
)

func TestPlanForAmount(t *testing.T) {
	tests := []struct {
		amount    float64
		wantPlan  string
		wantCycle string
		wantOK    bool
	}{
		{amount: 99.00, wantPlan: models.PlanEssential, wantCycle: models.BillingCycleMonthly, wantOK: true},
		{amount: 990.00, wantPlan: models.PlanEssential, wantCycle: models.BillingCycleYearly, wantOK: true},
		{amount: 199.00, wantPlan: models.PlanProfessional, wantCycle: models.BillingCycleMonthly, wantOK: true},
		{amount: 1990.00, wantPlan: models.PlanProfessional, wantCycle: models.BillingCycleYearly, wantOK: true},
		{amount: 299.00, wantPlan: models.PlanEnterprise, wantCycle: models.BillingCycleMonthly, wantOK: true},
		{amount: 2990.00, wantPlan: models.PlanEnterprise, wantCycle: models.BillingCycleYearly, wantOK: true},
		{amount: 100.00, wantOK: false},
		{amount: 0, wantOK: false},
		{amount: 99.01, wantOK: false},
	}

	for _, tt := range tests {
		price, ok := PlanForAmount(tt.amount)
		if ok != tt.wantOK {
			t.Fatalf("PlanForAmount(%.2f) ok = %v, want %v", tt.amount, ok, tt.wantOK)
		}
		if !ok {
			continue
		}
		if price.Plan != tt.wantPlan || price.BillingCycle != tt.wantCycle {
			t.Fatalf("PlanForAmount(%.2f) = %s/%s, want %s/%s",
				tt.amount, price.Plan, price.BillingCycle, tt.wantPlan, tt.wantCycle)
		}
	}
}

func TestPriceFor(t *testing.T) {
	if price, ok := PriceFor(models.PlanProfessional, models.BillingCycleYearly); !ok || price != 1990.00 {
		t.Fatalf("PriceFor(professional, yearly) = %.2f/%v, want 1990.00/true", price, ok)
	}
	if _, ok := PriceFor("platinum", models.BillingCycleMonthly); ok {
		t.Fatalf("expected unknown plan to have no price")
	}
	if _, ok := PriceFor(models.PlanEssential, "weekly"); ok {
		t.Fatalf("expected unknown billing cycle to have no price")
	}
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := PeriodEnd(start, models.BillingCycleMonthly); got.Sub(start) != 30*24*time.Hour {
		t.Fatalf("monthly period = %v, want 30 days", got.Sub(start))
	}
	if got := PeriodEnd(start, models.BillingCycleYearly); got.Sub(start) != 365*24*time.Hour {
		t.Fatalf("yearly period = %v, want 365 days", got.Sub(start))
	}
	// Unknown cycles fall back to the shorter period.
	if got := PeriodEnd(start, "weekly"); got.Sub(start) != 30*24*time.Hour {
		t.Fatalf("unknown cycle period = %v, want 30 days", got.Sub(start))
	}
}
