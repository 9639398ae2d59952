package payments

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
)

// PricePoint ties one charge amount to a plan tier and billing cycle.
type PricePoint struct {
	Plan         string
	BillingCycle string
}

// priceTable is the fixed catalog: three tiers, two billing cycles, USD.
// Subscription activation derives the plan from the paid amount, so these
// values must stay in sync with the pricing page.
var priceTable = map[float64]PricePoint{
	99:   {Plan: models.PlanEssential, BillingCycle: models.BillingCycleMonthly},
	990:  {Plan: models.PlanEssential, BillingCycle: models.BillingCycleYearly},
	199:  {Plan: models.PlanProfessional, BillingCycle: models.BillingCycleMonthly},
	1990: {Plan: models.PlanProfessional, BillingCycle: models.BillingCycleYearly},
	299:  {Plan: models.PlanEnterprise, BillingCycle: models.BillingCycleMonthly},
	2990: {Plan: models.PlanEnterprise, BillingCycle: models.BillingCycleYearly},
}

// PlanForAmount resolves a paid amount to its plan and billing cycle. The
// second return is false for amounts outside the catalog; callers treat that
// as an anomaly, not a failure.
func PlanForAmount(amount float64) (PricePoint, bool) {
	p, ok := priceTable[amount]
	return p, ok
}

// PriceFor returns the catalog amount for a plan and cycle, or false when the
// combination does not exist.
func PriceFor(plan, cycle string) (float64, bool) {
	for amount, p := range priceTable {
		if p.Plan == plan && p.BillingCycle == cycle {
			return amount, true
		}
	}
	return 0, false
}

// CatalogEntry is one row of the public price list.
type CatalogEntry struct {
	Plan         string  `json:"plan"`
	BillingCycle string  `json:"billing_cycle"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// PriceTable returns the catalog ordered by plan tier, monthly before yearly.
// Used by the pricing page and the subscribe form.
func PriceTable() []CatalogEntry {
	order := []struct {
		plan  string
		cycle string
	}{
		{models.PlanEssential, models.BillingCycleMonthly},
		{models.PlanEssential, models.BillingCycleYearly},
		{models.PlanProfessional, models.BillingCycleMonthly},
		{models.PlanProfessional, models.BillingCycleYearly},
		{models.PlanEnterprise, models.BillingCycleMonthly},
		{models.PlanEnterprise, models.BillingCycleYearly},
	}

	entries := make([]CatalogEntry, 0, len(order))
	for _, o := range order {
		amount, ok := PriceFor(o.plan, o.cycle)
		if !ok {
			continue
		}
		entries = append(entries, CatalogEntry{
			Plan:         o.plan,
			BillingCycle: o.cycle,
			Amount:       amount,
			Currency:     "USD",
		})
	}
	return entries
}

// PeriodEnd computes the subscription end date: 30 days for monthly, 365 for
// yearly billing.
func PeriodEnd(start time.Time, cycle string) time.Time {
	if cycle == models.BillingCycleYearly {
		return start.Add(365 * 24 * time.Hour)
	}
	return start.Add(30 * 24 * time.Hour)
}
