package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper is the housekeeping surface of the session store.
type Sweeper interface {
	SweepNotices() int
	SweepIdle() int
}

// Scheduler periodically expires notices and idle sessions.
type Scheduler struct {
	scheduler      *gocron.Scheduler
	sweeper        Sweeper
	noticeInterval time.Duration
	idleInterval   time.Duration
}

// New creates a new Scheduler.
func New(sweeper Sweeper, noticeInterval, idleInterval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:      s,
		sweeper:        sweeper,
		noticeInterval: noticeInterval,
		idleInterval:   idleInterval,
	}
}

// Start schedules the sweep jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.noticeInterval <= 0 {
		s.noticeInterval = time.Second
	}
	if s.idleInterval <= 0 {
		s.idleInterval = time.Minute
	}

	_, err := s.scheduler.Every(s.noticeInterval).SingletonMode().Do(func() {
		if n := s.sweeper.SweepNotices(); n > 0 {
			log.Printf("DEBUG: scheduler: dismissed %d expired notices", n)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(s.idleInterval).SingletonMode().Do(func() {
		if n := s.sweeper.SweepIdle(); n > 0 {
			log.Printf("INFO: scheduler: removed %d idle sessions", n)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
