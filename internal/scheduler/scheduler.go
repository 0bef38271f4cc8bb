// Package scheduler runs periodic jobs such as the scheduled reindex.
package scheduler

import (
	"time"

	"erp-helpdesk-assistant/internal/logger"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps a gocron scheduler whose jobs are identified by tag.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()
	return &Scheduler{scheduler: s}
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleJob runs job on a cron expression. Job errors are logged.
func (s *Scheduler) ScheduleJob(tag, cronExpr string, job func() error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(logged(tag, job))
	return err
}

// Tags lists the tags of all scheduled jobs.
func (s *Scheduler) Tags() []string {
	var tags []string
	for _, j := range s.scheduler.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

func logged(tag string, job func() error) func() {
	return func() {
		if err := job(); err != nil {
			logger.Error("Scheduled job failed", "job", tag, "error", err)
		}
	}
}
