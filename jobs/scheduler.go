package jobs

import (
	"fmt"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of background work run on a cron schedule
type Job interface {
	Run()
}

// Scheduler runs the background jobs on their configured cron specs
type Scheduler struct {
	Cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
	}
}

// Register schedules job under spec, a six-field cron expression with seconds
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.Cron.AddFunc(spec, job.Run); err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	logrus.WithFields(logrus.Fields{
		"component": "scheduler",
		"job":       name,
		"spec":      spec,
	}).Info("Scheduled background job")
	return nil
}

// RegisterAll schedules the rollover and cache cleanup jobs. cleanup may be nil
// when caching is disabled.
func (s *Scheduler) RegisterAll(cfg shared.JobsConfig, rollover *DayRolloverJob, cleanup *CacheCleanupJob) error {
	if err := s.Register("day_rollover", cfg.RolloverCron, rollover); err != nil {
		return err
	}
	if cleanup != nil {
		if err := s.Register("cache_cleanup", cfg.CacheCleanupCron, cleanup); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	logrus.WithField("component", "scheduler").Info("Scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logrus.WithField("component", "scheduler").Info("Scheduler stopped")
}
