// Package health reports whether the service has a usable lexicon loaded.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/scheduler"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store       interfaces.LexiconStore
	reloadTimes []string
	now         func() time.Time
}

// NewHealthChecker creates a health checker. reloadTimes is empty when
// reloads are disabled.
func NewHealthChecker(store interfaces.LexiconStore, reloadTimes []string) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:       store,
		reloadTimes: reloadTimes,
		now:         time.Now,
	}
}

// HealthCheck is healthy once a lexicon with at least one drug is active
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	lex := h.store.GetLexicon()
	lastLoaded := h.store.GetLastLoaded()

	data = map[string]any{
		"source":       h.store.GetSource(),
		"is_reloading": h.store.IsReloading(),
	}

	if start := h.store.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(now.Sub(start).Seconds())
	}
	if next := h.CalculateNextReload(); !next.IsZero() {
		data["next_reload"] = next.Format(time.RFC3339)
	}

	if lex == nil || lex.Len() == 0 {
		data["drugs"] = 0
		data["synonyms"] = 0
		return "unhealthy", data, http.StatusServiceUnavailable
	}

	data["drugs"] = lex.Len()
	data["synonyms"] = lex.SynonymCount()
	data["last_load"] = lastLoaded.Format(time.RFC3339)
	data["lexicon_age_hours"] = math.Round(now.Sub(lastLoaded).Hours()*10) / 10

	return "healthy", data, http.StatusOK
}

// CalculateNextReload returns the next scheduled lexicon reload
func (h *HealthCheckerImpl) CalculateNextReload() time.Time {
	if len(h.reloadTimes) == 0 {
		return time.Time{}
	}
	return scheduler.NextReload(h.now(), h.reloadTimes)
}
