package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Scheduler decides when a session's analysis is due.
type Scheduler struct {
	hour     int
	minute   int
	location *time.Location
	nyse     *calendar.Calendar
}

// NewScheduler creates a new scheduler with the given schedule time and timezone
func NewScheduler(hour, minute int, timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		hour:     hour,
		minute:   minute,
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// SessionDate returns now's date in YYYY-MM-DD in the configured timezone.
func (s *Scheduler) SessionDate(now time.Time) string {
	return now.In(s.location).Format("2006-01-02")
}

// IsMarketDay checks if the given date is a trading day (not weekend/holiday)
func (s *Scheduler) IsMarketDay(dateStr string) bool {
	// Parse as noon in the configured timezone to ensure correct date matching
	t, err := time.ParseInLocation("2006-01-02 15:04:05", dateStr+" 12:00:00", s.location)
	if err != nil {
		return false
	}
	return s.nyse.IsBusinessDay(t)
}

// Due reports whether now is at or past the scheduled time on a market day
// whose session has not been analyzed yet. Being late still counts, so a
// daemon restarted after the scheduled minute catches up.
func (s *Scheduler) Due(now time.Time, lastRun string) bool {
	local := now.In(s.location)
	date := local.Format("2006-01-02")

	if date == lastRun || !s.IsMarketDay(date) {
		return false
	}

	scheduled := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.location)
	return !local.Before(scheduled)
}

// Location returns the scheduler's timezone location
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// RunTracker records the last session that was analyzed.
type RunTracker struct {
	stateFile string
}

func NewRunTracker(stateFile string) *RunTracker {
	return &RunTracker{stateFile: stateFile}
}

// LastRun returns the last analyzed session date, or "" when none.
func (t *RunTracker) LastRun() string {
	data, err := os.ReadFile(t.stateFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (t *RunTracker) SetLastRun(date string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(t.stateFile), 0750); err != nil {
		return err
	}
	return os.WriteFile(t.stateFile, []byte(date+"\n"), 0600)
}
