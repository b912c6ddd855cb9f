package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/storage"
)

// DraftPruner removes drafts last written before a cutoff
type DraftPruner interface {
	PruneDrafts(ctx context.Context, before time.Time) (int, error)
}

// DraftJanitor periodically removes drafts older than a TTL
type DraftJanitor struct {
	drafts   DraftPruner
	ttl      time.Duration
	schedule string
	logger   logging.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewDraftJanitor creates a janitor pruning drafts older than ttl on the
// given cron schedule
func NewDraftJanitor(drafts DraftPruner, ttl time.Duration, schedule string, logger logging.Logger) *DraftJanitor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DraftJanitor{
		drafts:   drafts,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the janitor. It does nothing when the TTL is zero.
func (j *DraftJanitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ttl <= 0 || j.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("draft pruning failed", logging.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", j.schedule, err)
	}

	c.Start()
	j.cron = c
	j.logger.LogSystemEvent("draft_janitor_started", map[string]interface{}{
		"schedule": j.schedule,
		"ttl":      j.ttl.String(),
	})
	return nil
}

// Stop halts the schedule and waits for a running prune to finish
func (j *DraftJanitor) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce prunes expired drafts immediately
func (j *DraftJanitor) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	removed, err := j.drafts.PruneDrafts(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		j.logger.LogDraftEvent("*", "pruned", map[string]interface{}{
			"removed": removed,
			"before":  cutoff,
		})
	}
	return removed, nil
}

var _ DraftPruner = (storage.DraftStore)(nil)
