package entitlements

import (
	"strings"

	"github.com/astrafabric/astrafabric/app/models"
)

type Plan string

const (
	PlanNone         Plan = "none"
	PlanEssential    Plan = "essential"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Entitlements are the monitoring capabilities a plan unlocks. The dashboard
// and status API read these; enforcement happens in the monitoring pipeline.
type Entitlements struct {
	MonitoredAssets   int    `json:"monitored_assets"`
	ScanIntervalHours int    `json:"scan_interval_hours"`
	RetentionDays     int    `json:"retention_days"`
	APIAccess         bool   `json:"api_access"`
	SupportTier       string `json:"support_tier"`
}

// ForPlan returns the entitlements for a plan name. Unknown or empty plans
// get the locked-down defaults.
func ForPlan(plan string) Entitlements {
	switch Plan(strings.ToLower(plan)) {
	case PlanEnterprise:
		return Entitlements{
			MonitoredAssets:   250,
			ScanIntervalHours: 1,
			RetentionDays:     365,
			APIAccess:         true,
			SupportTier:       "dedicated",
		}
	case PlanProfessional:
		return Entitlements{
			MonitoredAssets:   50,
			ScanIntervalHours: 6,
			RetentionDays:     90,
			APIAccess:         true,
			SupportTier:       "priority",
		}
	case PlanEssential:
		return Entitlements{
			MonitoredAssets:   10,
			ScanIntervalHours: 24,
			RetentionDays:     30,
			APIAccess:         false,
			SupportTier:       "standard",
		}
	default:
		return Entitlements{}
	}
}

// ForSubscription resolves entitlements from a subscription row; expired or
// cancelled subscriptions grant nothing.
func ForSubscription(sub *models.Subscription) Entitlements {
	if sub == nil || sub.Status != models.SubscriptionStatusActive {
		return Entitlements{}
	}
	return ForPlan(sub.Plan)
}
