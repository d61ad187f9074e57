package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
)

// DailyTime is a wall-clock time of day, HH:MM.
type DailyTime struct {
	Hour   int
	Minute int
}

func (d DailyTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

func ParseDailyTime(value string) (DailyTime, error) {
	hourText, minuteText, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return DailyTime{}, invalidDailyTime(value)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return DailyTime{}, invalidDailyTime(value)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 || len(minuteText) != 2 {
		return DailyTime{}, invalidDailyTime(value)
	}
	return DailyTime{Hour: hour, Minute: minute}, nil
}

func invalidDailyTime(value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid schedule time, expected HH:MM: " + value)
}

// Next returns the first occurrence of d strictly after now, in now's
// location.
func (d DailyTime) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler runs a job once at start and then every day at At. Runs never
// overlap: the next slot is computed after the previous run returns, so a
// run that overruns a slot skips it.
type Scheduler struct {
	At     DailyTime
	Run    func(ctx context.Context) error
	Logger zerolog.Logger
	Clock  func() time.Time
	After  func(d time.Duration) <-chan time.Time
}

func NewScheduler(at DailyTime, run func(ctx context.Context) error, logger zerolog.Logger) Scheduler {
	return Scheduler{
		At:     at,
		Run:    run,
		Logger: logger,
		Clock:  time.Now,
		After:  time.After,
	}
}

// Start blocks until ctx is cancelled. Job errors are logged and do not stop
// the schedule.
func (s Scheduler) Start(ctx context.Context) error {
	if s.Run == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("scheduler has no job")
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	after := s.After
	if after == nil {
		after = time.After
	}
	for {
		s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		now := clock()
		next := s.At.Next(now)
		s.Logger.Info().Time("next_run", next).Msg("next run scheduled")
		select {
		case <-ctx.Done():
			return nil
		case <-after(next.Sub(now)):
		}
	}
}

func (s Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	s.Logger.Info().Msg("run started")
	if err := s.Run(ctx); err != nil {
		s.Logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("run failed")
		return
	}
	s.Logger.Info().Dur("elapsed", time.Since(started)).Msg("run finished")
}
