package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/metrics"
)

// SessionRefresher is implemented by the lock gateway
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// LockSessionRefreshJob keeps the lock vendor token and device directory warm
type LockSessionRefreshJob struct {
	refresher SessionRefresher
	schedule  string
	timeout   time.Duration

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewLockSessionRefreshJob creates the job. An empty schedule disables it.
func NewLockSessionRefreshJob(refresher SessionRefresher, schedule string, timeout time.Duration) *LockSessionRefreshJob {
	return &LockSessionRefreshJob{
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
	}
}

// Start registers the refresh with the cron scheduler
func (j *LockSessionRefreshJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		logrus.Info("Lock session refresh already running")
		return nil
	}
	if j.schedule == "" {
		logrus.Info("Lock session refresh disabled")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}
	c.Start()

	j.cron = c
	j.isRunning = true
	logrus.WithField("schedule", j.schedule).Info("⏰ Lock session refresh scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish
func (j *LockSessionRefreshJob) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.isRunning = false
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		logrus.Info("⏹️  Lock session refresh stopped")
	}
}

// Run refreshes the session once
func (j *LockSessionRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.refresher.Refresh(ctx)
	metrics.SessionRefresh(err == nil)

	j.mu.Lock()
	j.lastRun = time.Now()
	j.lastErr = err
	j.mu.Unlock()

	if err != nil {
		logrus.WithError(err).Warn("Lock session refresh failed")
		return
	}
	logrus.Debug("Lock session refreshed")
}

// Status reports the last run, for the health endpoint
func (j *LockSessionRefreshJob) Status() (running bool, lastRun time.Time, lastErr error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.isRunning, j.lastRun, j.lastErr
}
