package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/internal/pkg/cache"
	"github.com/replybot-ai/replybot/internal/pkg/database"
)

const (
	CacheKeyRepliesTotal = "statistics:replies:total"
	CacheKeyRepliesDaily = "statistics:replies:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers        = "statistics:users:total"
	CacheExpiration      = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the landing page
type StatisticsData struct {
	TodayReplies int
	TotalUsers   int
	TotalReplies int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are older than the
// update interval
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when it is stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalReplies int64
	if err := db.Model(&models.ReplyLog{}).Where("status = ?", models.REPLY_STATUS_POSTED).Count(&totalReplies).Error; err != nil {
		log.Printf("Error counting total replies: %v", err)
		return err
	}

	today := time.Now().Format("2006-01-02")
	var todayReplies int64
	if err := db.Model(&models.ReplyLog{}).
		Where("status = ? AND posted_at >= ?", models.REPLY_STATUS_POSTED, today).
		Count(&todayReplies).Error; err != nil {
		log.Printf("Error counting today's replies: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyRepliesTotal, strconv.FormatInt(totalReplies, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(fmt.Sprintf(CacheKeyRepliesDaily, today), strconv.FormatInt(todayReplies, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// GetStatistics reads the cached aggregate numbers, refreshing the cache when
// values are missing
func GetStatistics() StatisticsData {
	data := StatisticsData{}

	total, err := cache.GetInt(CacheKeyRepliesTotal)
	if err != nil {
		UpdateCacheIfNeeded()
		total, _ = cache.GetInt(CacheKeyRepliesTotal)
	}
	data.TotalReplies = total

	today := time.Now().Format("2006-01-02")
	todayCount, _ := cache.GetInt(fmt.Sprintf(CacheKeyRepliesDaily, today))
	data.TodayReplies = todayCount

	users, _ := cache.GetInt(CacheKeyUsers)
	data.TotalUsers = users

	return data
}

// UpdateDailyStats rolls the reply log engagement counters for today into the
// daily stats table per user
func UpdateDailyStats() error {
	db := database.GetDB()
	today := time.Now().Format("2006-01-02")

	type row struct {
		UserID       uint
		Posted       int64
		TotalLikes   int64
		TotalReplies int64
	}

	var rows []row
	err := db.Model(&models.ReplyLog{}).
		Select("user_id, COUNT(*) AS posted, SUM(engagement_likes) AS total_likes, SUM(engagement_replies) AS total_replies").
		Where("status = ? AND posted_at >= ?", models.REPLY_STATUS_POSTED, today).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, r := range rows {
		engagementRate := 0.0
		if r.Posted > 0 {
			engagementRate = float64(r.TotalLikes+r.TotalReplies) / float64(r.Posted)
		}

		var stats models.DailyStats
		res := db.Where("user_id = ? AND date = ?", r.UserID, today).First(&stats)
		if res.Error != nil {
			stats = models.DailyStats{
				UserID:         r.UserID,
				Date:           today,
				RepliesSent:    int(r.Posted),
				EngagementRate: engagementRate,
			}
			if err := db.Create(&stats).Error; err != nil {
				log.Printf("Error creating daily stats for user %d: %v", r.UserID, err)
			}
			continue
		}

		stats.RepliesSent = int(r.Posted)
		stats.EngagementRate = engagementRate
		if err := db.Save(&stats).Error; err != nil {
			log.Printf("Error updating daily stats for user %d: %v", r.UserID, err)
		}
	}

	return nil
}
