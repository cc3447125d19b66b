package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/sirupsen/logrus"
)

// TabCounter counts records on each side of the live/history split
type TabCounter interface {
	CountByTab(ctx context.Context, today string) (map[models.Tab]int64, error)
}

// DayRolloverJob runs just after midnight UTC, when offerings whose end date
// was yesterday move from the live tab to history. Cached pages built on the
// previous date are dropped and the new split is logged.
type DayRolloverJob struct {
	Counter TabCounter
	Cache   *services.CacheService
	Query   *services.QueryService
	Timeout time.Duration
}

func NewDayRolloverJob(counter TabCounter, cache *services.CacheService, query *services.QueryService) *DayRolloverJob {
	return &DayRolloverJob{
		Counter: counter,
		Cache:   cache,
		Query:   query,
		Timeout: 2 * time.Minute,
	}
}

func (j *DayRolloverJob) Run() {
	logger := logrus.WithField("component", "day_rollover_job")
	logger.Info("Starting Day Rollover Job")

	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	removed := 0
	if j.Cache != nil {
		removed = j.Cache.Clear()
	}

	today := j.Query.Today()
	counts, err := j.Counter.CountByTab(ctx, today)
	if err != nil {
		logger.WithError(err).Error("Day Rollover Job failed to count IPOs")
		return
	}

	j.Query.Metrics().LogSummary()

	logger.WithFields(logrus.Fields{
		"today":          today,
		"live":           counts[models.TabLive],
		"history":        counts[models.TabHistory],
		"cache_released": removed,
	}).Info("Day Rollover Job completed")
}
