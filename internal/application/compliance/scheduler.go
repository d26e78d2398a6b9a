package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// Schedule is a sweep cadence: daily at Hour:Minute, or weekly when
// Weekday is set.
type Schedule struct {
	Name    string
	Hour    int
	Minute  int
	Weekday *time.Weekday
	Force   bool
}

// ParseSchedule builds a Schedule from "HH:MM" and an optional weekday name.
func ParseSchedule(name, at, weekday string, force bool) (Schedule, error) {
	s := Schedule{Name: name, Force: force}
	if n, err := fmt.Sscanf(at, "%d:%d", &s.Hour, &s.Minute); err != nil || n != 2 ||
		s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
		return Schedule{}, errors.Newf(errors.ErrCodeValidation, "schedule %q: invalid time %q", name, at)
	}
	if weekday != "" {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.EqualFold(d.String(), weekday) {
				wd := d
				s.Weekday = &wd
				break
			}
		}
		if s.Weekday == nil {
			return Schedule{}, errors.Newf(errors.ErrCodeValidation, "schedule %q: invalid weekday %q", name, weekday)
		}
	}
	return s, nil
}

// Next returns the first firing strictly after after, in after's location.
func (s Schedule) Next(after time.Time) time.Time {
	y, m, d := after.Date()
	for i := 0; i < 8; i++ {
		t := time.Date(y, m, d+i, s.Hour, s.Minute, 0, 0, after.Location())
		if !t.After(after) {
			continue
		}
		if s.Weekday != nil && t.Weekday() != *s.Weekday {
			continue
		}
		return t
	}
	// unreachable for valid schedules
	return after.Add(24 * time.Hour)
}

// FleetSweeper sweeps every active organization.
type FleetSweeper interface {
	SweepAll(ctx context.Context, force bool) ([]*Summary, error)
}

// Scheduler fires SweepAll on its schedules. Schedules due at the same
// instant run once, forced if any of them is.
type Scheduler struct {
	sweeper   FleetSweeper
	schedules []Schedule
	loc       *time.Location
	logger    logging.Logger
	clock     Clock
	after     func(time.Duration) <-chan time.Time
}

func NewScheduler(sweeper FleetSweeper, schedules []Schedule, loc *time.Location, logger logging.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		sweeper:   sweeper,
		schedules: schedules,
		loc:       loc,
		logger:    logger,
		clock:     defaultClock,
		after:     time.After,
	}
}

// due returns the next firing instant and the schedules firing then.
func (s *Scheduler) due(now time.Time) (time.Time, []Schedule) {
	now = now.In(s.loc)
	var next time.Time
	var firing []Schedule
	for _, sc := range s.schedules {
		t := sc.Next(now)
		switch {
		case next.IsZero() || t.Before(next):
			next, firing = t, []Schedule{sc}
		case t.Equal(next):
			firing = append(firing, sc)
		}
	}
	sort.Slice(firing, func(i, j int) bool { return firing[i].Name < firing[j].Name })
	return next, firing
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.schedules) == 0 {
		s.logger.Warn("no sweep schedules configured")
		<-ctx.Done()
		return nil
	}
	for {
		next, firing := s.due(s.clock())
		s.logger.Info("next scheduled sweep",
			logging.Time("at", next),
			logging.String("schedule", firing[0].Name),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(s.clock())):
		}
		s.fire(ctx, firing)
	}
}

func (s *Scheduler) fire(ctx context.Context, firing []Schedule) {
	names := make([]string, len(firing))
	force := false
	for i, sc := range firing {
		names[i] = sc.Name
		force = force || sc.Force
	}
	log := s.logger.With(logging.String("schedule", strings.Join(names, ",")))

	start := s.clock()
	sums, err := s.sweeper.SweepAll(ctx, force)
	if err != nil {
		log.Error("scheduled sweep failed", logging.Err(err))
		return
	}
	failed := 0
	for _, sum := range sums {
		if sum != nil && sum.Error != "" {
			failed++
		}
	}
	log.Info("scheduled sweep finished",
		logging.Int("organizations", len(sums)),
		logging.Int("failed", failed),
		logging.Duration("duration", s.clock().Sub(start)),
	)
}

//Personal.AI order the ending
