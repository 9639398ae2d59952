package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/internal/pkg/cache"
	"github.com/astrafabric/astrafabric/internal/pkg/database"
)

const (
	CacheKeyCustomers     = "statistics:customers:total"
	CacheKeySubscriptions = "statistics:subscriptions:active"
	CacheKeyPaymentsDaily = "statistics:payments:daily:%s" // Format with date YYYY-MM-DD
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData contains the aggregate figures for the admin overview
type StatisticsData struct {
	TodayPayments       int
	TotalCustomers      int
	ActiveSubscriptions int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached figures are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Aktualisiere Statistik-Cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Fehler beim Aktualisieren des Statistik-Caches: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalCustomers int64
	if err := db.Model(&models.Customer{}).Count(&totalCustomers).Error; err != nil {
		log.Printf("Error counting customers: %v", err)
		return err
	}

	var activeSubs int64
	if err := db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionStatusActive).
		Count(&activeSubs).Error; err != nil {
		log.Printf("Error counting active subscriptions: %v", err)
		return err
	}

	var todayPayments int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Payment{}).
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.PaymentStatusCompleted, todayStart, todayEnd).
		Count(&todayPayments).Error; err != nil {
		log.Printf("Error counting today's payments: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCustomers, strconv.FormatInt(totalCustomers, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeySubscriptions, strconv.FormatInt(activeSubs, 10), CacheExpiration); err != nil {
		return err
	}
	dailyKey := fmt.Sprintf(CacheKeyPaymentsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayPayments, 10), CacheExpiration); err != nil {
		return err
	}

	log.Printf("Statistics updated in cache: Customers: %d, Active Subscriptions: %d, Payments today: %d",
		totalCustomers, activeSubs, todayPayments)

	return nil
}

// GetTotalCustomers returns the customer count from cache or database
func GetTotalCustomers() int {
	return cachedModelCount(CacheKeyCustomers, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Customer{}).Count(&count).Error
		return count, err
	})
}

func cachedModelCount(key string, countFn func() (int64, error)) int {
	val, err := cache.Get(key)
	if err == nil {
		if count, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return int(count)
		}
	}

	count, err := countFn()
	if err != nil {
		log.Printf("Error counting for %s: %v", key, err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return int(count)
}

// GetActiveSubscriptions returns the active subscription count from cache or database
func GetActiveSubscriptions() int {
	return cachedModelCount(CacheKeySubscriptions, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Subscription{}).
			Where("status = ?", models.SubscriptionStatusActive).
			Count(&count).Error
		return count, err
	})
}

// GetTodayPayments returns the number of payments completed today from cache or database
func GetTodayPayments() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyPaymentsDaily, today)

	return cachedModelCount(dailyKey, func() (int64, error) {
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)
		var count int64
		err := database.GetDB().Model(&models.Payment{}).
			Where("status = ? AND completed_at BETWEEN ? AND ?", models.PaymentStatusCompleted, todayStart, todayEnd).
			Count(&count).Error
		return count, err
	})
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayPayments:       GetTodayPayments(),
		TotalCustomers:      GetTotalCustomers(),
		ActiveSubscriptions: GetActiveSubscriptions(),
	}
}
