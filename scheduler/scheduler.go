// Package scheduler loads the lexicon at startup and reloads it from its file or URL at
// the configured times of day.
package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// LoadFunc loads a lexicon table and labels its source
type LoadFunc func(path string) (*lexicon.Lexicon, string, error)

// Scheduler owns the lexicon lifecycle of the server
type Scheduler struct {
	store       interfaces.LexiconStore
	path        string
	reloadTimes []string
	load        LoadFunc
	scheduler   *gocron.Scheduler
}

// NewScheduler creates a scheduler for the table at path (empty for the
// embedded table). Reloads only run when both path and reloadTimes are set.
func NewScheduler(store interfaces.LexiconStore, path string, reloadTimes []string) *Scheduler {
	return &Scheduler{
		store:       store,
		path:        path,
		reloadTimes: reloadTimes,
		load:        lexicon.Load,
		scheduler:   gocron.NewScheduler(time.Local),
	}
}

// WithLoader replaces the function used to read the table
func (s *Scheduler) WithLoader(load LoadFunc) *Scheduler {
	s.load = load
	return s
}

func (s *Scheduler) reloadEnabled() bool {
	return s.path != "" && len(s.reloadTimes) > 0
}

// Start loads the lexicon synchronously, then schedules reloads.
// A failed initial load is fatal.
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		logging.Error("Failed to perform initial lexicon load", "error", err)
		return fmt.Errorf("initial lexicon load failed: %w", err)
	}

	if !s.reloadEnabled() {
		logging.Info("Lexicon reload disabled", "source", s.store.GetSource())
		return nil
	}

	at := strings.Join(s.reloadTimes, ";")
	_, err := s.scheduler.Every(1).Days().At(at).Do(func() {
		if err := s.Reload(); err != nil {
			logging.Error("Failed to reload lexicon, keeping previous snapshot", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule lexicon reloads", "error", err)
		return fmt.Errorf("failed to schedule lexicon reloads: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Lexicon reload scheduled", "at", at, "file", s.path)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

// Reload reads and validates the table and publishes it. On failure the
// previous snapshot stays active.
func (s *Scheduler) Reload() error {
	// Prevent concurrent reloads
	if !s.store.BeginReload() {
		logging.Info("Lexicon reload already in progress, skipping...")
		metrics.LexiconReloads.WithLabelValues("skipped").Inc()
		return nil
	}
	defer s.store.EndReload()

	start := time.Now()
	lex, source, err := s.load(s.path)
	if err != nil {
		metrics.LexiconReloads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to load lexicon: %w", err)
	}

	s.store.UpdateLexicon(lex, source)
	metrics.LexiconReloads.WithLabelValues("success").Inc()
	metrics.LexiconDrugs.Set(float64(lex.Len()))

	logging.Info("Lexicon loaded",
		"source", source,
		"drugs", lex.Len(),
		"synonyms", lex.SynonymCount(),
		"duration", time.Since(start).String(),
	)
	return nil
}

// CalculateNextReload returns the next scheduled reload, zero when reloads are off
func (s *Scheduler) CalculateNextReload() time.Time {
	if !s.reloadEnabled() {
		return time.Time{}
	}
	return NextReload(time.Now(), s.reloadTimes)
}

// NextReload returns the first HH:MM time after now, tomorrow's earliest
// when all of today's have passed. Malformed entries are ignored.
func NextReload(now time.Time, times []string) time.Time {
	var today []time.Time
	for _, hhmm := range times {
		t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
		if err != nil {
			continue
		}
		today = append(today, time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()))
	}
	if len(today) == 0 {
		return time.Time{}
	}

	sort.Slice(today, func(i, j int) bool { return today[i].Before(today[j]) })
	for _, t := range today {
		if t.After(now) {
			return t
		}
	}
	return today[0].AddDate(0, 0, 1)
}
