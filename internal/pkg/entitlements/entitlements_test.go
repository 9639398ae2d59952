package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astrafabric/astrafabric/app/models"
)

func TestForPlan(t *testing.T) {
	essential := ForPlan("essential")
	assert.Equal(t, 10, essential.MonitoredAssets)
	assert.Equal(t, 24, essential.ScanIntervalHours)
	assert.False(t, essential.APIAccess)

	professional := ForPlan("Professional")
	assert.Equal(t, 50, professional.MonitoredAssets)
	assert.True(t, professional.APIAccess)
	assert.Equal(t, "priority", professional.SupportTier)

	enterprise := ForPlan("ENTERPRISE")
	assert.Equal(t, 250, enterprise.MonitoredAssets)
	assert.Equal(t, 365, enterprise.RetentionDays)
	assert.Equal(t, "dedicated", enterprise.SupportTier)

	assert.Equal(t, Entitlements{}, ForPlan(""))
	assert.Equal(t, Entitlements{}, ForPlan("free-forever"))
}

func TestForSubscription(t *testing.T) {
	assert.Equal(t, Entitlements{}, ForSubscription(nil))

	cancelled := &models.Subscription{Plan: "enterprise", Status: models.SubscriptionStatusCancelled}
	assert.Equal(t, Entitlements{}, ForSubscription(cancelled))

	active := &models.Subscription{Plan: "essential", Status: models.SubscriptionStatusActive}
	assert.Equal(t, ForPlan("essential"), ForSubscription(active))
}
