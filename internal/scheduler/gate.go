package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"crawling_observer/internal/domain"
)

// GateRecorder receives every gate decision.
type GateRecorder interface {
	ObserveGateDecision(producer string, allowed bool)
}

type GateOptions struct {
	Location     *time.Location
	TestMode     bool
	TestInterval time.Duration
	Clock        func() time.Time
	Recorder     GateRecorder
}

// Gate answers whether a producer may run now and arms its cooldown on a
// positive answer.
type Gate struct {
	schedules    map[string]domain.ProducerSchedule
	cooldowns    CooldownStore
	loc          *time.Location
	testMode     bool
	testInterval time.Duration
	now          func() time.Time
	recorder     GateRecorder
	logger       *slog.Logger
}

func NewGate(schedules map[string]domain.ProducerSchedule, cooldowns CooldownStore, opts GateOptions, logger *slog.Logger) *Gate {
	g := &Gate{
		schedules:    schedules,
		cooldowns:    cooldowns,
		loc:          opts.Location,
		testMode:     opts.TestMode,
		testInterval: opts.TestInterval,
		now:          opts.Clock,
		recorder:     opts.Recorder,
		logger:       logger.With("component", "gate"),
	}
	if g.loc == nil {
		g.loc = time.UTC
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// MayRun must be called before every producer run; the result must not be
// cached since a true answer arms the cooldown.
func (g *Gate) MayRun(ctx context.Context, producer string) (bool, error) {
	now := g.now().In(g.loc)

	ok, err := g.decide(ctx, producer, now)
	if err != nil {
		return false, err
	}

	if g.recorder != nil {
		g.recorder.ObserveGateDecision(producer, ok)
	}
	if ok {
		g.logger.Debug("producer eligible", "producer", producer, "at", now.Format(time.RFC3339))
	}
	return ok, nil
}

func (g *Gate) decide(ctx context.Context, producer string, now time.Time) (bool, error) {
	if g.testMode {
		return g.cooldowns.TryArm(ctx, producer, now, g.testInterval)
	}

	active, err := g.cooldowns.Active(ctx, producer, now)
	if err != nil {
		return false, err
	}
	if active {
		return false, nil
	}

	schedule, ok := g.schedules[producer]
	if !ok {
		return false, domain.E(domain.KindConfiguration, "gate",
			fmt.Errorf("no schedule registered for producer %q", producer))
	}

	cooldown, due := dueAt(schedule, now)
	if !due {
		return false, nil
	}

	return g.cooldowns.TryArm(ctx, producer, now, cooldown)
}

// dueAt evaluates the calendar rule at now and returns the cooldown to arm.
func dueAt(s domain.ProducerSchedule, now time.Time) (time.Duration, bool) {
	switch s.Kind {
	case domain.ScheduleWeekly:
		w, ok := s.Weekly[now.Weekday()]
		if !ok {
			return 0, false
		}
		if now.Hour() < w.StartHour || now.Hour() >= w.EndHour {
			return 0, false
		}
		elapsed := now.Hour()*60 + now.Minute() - w.StartHour*60
		if elapsed%w.IntervalMinutes != 0 {
			return 0, false
		}
		return time.Duration(w.IntervalMinutes) * time.Minute, true

	case domain.ScheduleMonthly:
		if s.Monthly == nil {
			return 0, false
		}
		if now.Day() == s.Monthly.Day && now.Hour() == s.Monthly.Hour {
			return domain.MonthlyCooldown, true
		}
		return 0, false

	case domain.ScheduleQuarterly:
		q := s.Quarterly
		if q == nil {
			return 0, false
		}
		if slices.Contains(q.Months, int(now.Month())) && now.Day() == q.Day && now.Hour() == q.Hour {
			return domain.QuarterlyCooldown, true
		}
		return 0, false
	}

	return 0, false
}
