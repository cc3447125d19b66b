package jobs

import (
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/sirupsen/logrus"
)

type CacheCleanupJob struct {
	CacheService *services.CacheService
}

func NewCacheCleanupJob(cacheService *services.CacheService) *CacheCleanupJob {
	return &CacheCleanupJob{CacheService: cacheService}
}

func (j *CacheCleanupJob) Run() {
	removed := j.CacheService.CleanupExpired()
	stats := j.CacheService.Stats()

	logrus.WithFields(logrus.Fields{
		"component": "cache_cleanup_job",
		"removed":   removed,
		"remaining": stats.Size,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
	}).Debug("Cache Cleanup Job completed")
}
