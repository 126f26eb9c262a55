package group

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/clock"
	"github.com/scholarsync/bot/internal/dispatch"
)

// DefaultSweepInterval is how often the expiry check runs
const DefaultSweepInterval = time.Minute

// Scheduler runs the periodic expiry sweep: it fires staged warnings in
// each group's channel and dissolves groups whose time is up.
type Scheduler struct {
	registry   *Registry
	dispatcher dispatch.Dispatcher
	clock      clock.Clock
	log        *zap.Logger
	interval   time.Duration
}

// NewScheduler creates a scheduler sweeping at the given interval
func NewScheduler(registry *Registry, dispatcher dispatch.Dispatcher, c clock.Clock, log *zap.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		registry:   registry,
		dispatcher: dispatcher,
		clock:      c,
		log:        log,
		interval:   interval,
	}
}

// Run sweeps on a fixed period until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass over every active group. Alerts advance the
// group's stage monotonically and fire at most once per stage per
// extension epoch; the ten and five minute warnings are gated on the
// group's total lifespan so a 3-minute group never hears "10 minutes
// left". Groups past their deadline are dissolved after the alert pass.
//
// Delivery failures never abort the sweep: bookkeeping correctness does
// not depend on notifications landing.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	var expired []Group
	for _, g := range s.registry.ListAll() {
		timeLeft := g.ExpiresAt.Sub(now)
		if timeLeft <= 0 {
			expired = append(expired, g)
			continue
		}

		stage := stageFor(timeLeft, g.ExpiresAt.Sub(g.CreatedAt))
		if stage == AlertNone || stage <= g.AlertStage {
			continue
		}
		if !s.registry.AdvanceAlert(g.ID, stage) {
			continue
		}
		if g.Resources.Discussion == "" {
			continue
		}
		if err := s.dispatcher.Announce(ctx, dispatch.Channel(g.Resources.Discussion), alertText(stage)); err != nil {
			s.log.Warn("alert delivery failed",
				zap.Int64("group_id", g.ID),
				zap.String("stage", stage.String()),
				zap.Error(err))
		}
	}

	for _, g := range expired {
		s.dissolve(ctx, g)
	}
}

func (s *Scheduler) dissolve(ctx context.Context, g Group) {
	removed, ok := s.registry.Remove(g.ID)
	if !ok {
		return
	}

	s.log.Info("group dissolved",
		zap.Int64("group_id", removed.ID),
		zap.String("subject", removed.Subject))

	res := removed.Resources
	if res.Discussion != "" {
		if err := s.dispatcher.Announce(ctx, dispatch.Channel(res.Discussion), "🗑️ This study group has now ended."); err != nil {
			s.log.Warn("dissolution notice failed", zap.Int64("group_id", removed.ID), zap.Error(err))
		}
	}
	if res != (Resources{}) {
		if err := s.dispatcher.DestroyResources(ctx, res.Discussion, res.Live); err != nil {
			s.log.Warn("resource teardown failed", zap.Int64("group_id", removed.ID), zap.Error(err))
		}
	}
	if !removed.IsSecret() {
		text := fmt.Sprintf("🗑️ **Group Deleted:** ID **%d** - **%s** has been deleted as per the set time.", removed.ID, removed.Subject)
		if err := s.dispatcher.Announce(ctx, dispatch.Public(), text); err != nil {
			s.log.Warn("dissolution announcement failed", zap.Int64("group_id", removed.ID), zap.Error(err))
		}
	}
}

// stageFor picks the warning stage the remaining time currently falls
// in. Windows are (5m,10m], (1m,5m] and (0,1m]; the longer warnings
// only apply when the group's total span actually reached them.
func stageFor(timeLeft, totalSpan time.Duration) AlertStage {
	switch {
	case timeLeft <= time.Minute:
		return AlertOneMin
	case timeLeft <= 5*time.Minute && totalSpan >= 5*time.Minute:
		return AlertFiveMin
	case timeLeft <= 10*time.Minute && totalSpan >= 10*time.Minute:
		return AlertTenMin
	default:
		return AlertNone
	}
}

func alertText(stage AlertStage) string {
	var window string
	switch stage {
	case AlertTenMin:
		window = "10 minutes"
	case AlertFiveMin:
		window = "5 minutes"
	default:
		window = "1 minute"
	}
	return fmt.Sprintf("⏰ **Alert:** This group will end in **%s**! Type **-extend** to extend the time.", window)
}
