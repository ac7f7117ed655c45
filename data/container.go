// Package data holds the active lexicon snapshot behind atomic pointers so
// reloads never block or tear concurrent analyses.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/logging"
)

// Compile-time check to ensure LexiconContainer implements LexiconStore
var _ interfaces.LexiconStore = (*LexiconContainer)(nil)

// snapshot is published as one unit so the lexicon, its analyzer and the
// metadata always agree
type snapshot struct {
	lexicon  *lexicon.Lexicon
	analyzer *analyzer.Analyzer
	source   string
	loadedAt time.Time
}

// LexiconContainer holds the current lexicon snapshot
type LexiconContainer struct {
	current         atomic.Pointer[snapshot]
	policy          analyzer.MergePolicy
	reloading       atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewLexiconContainer creates an empty container whose analyzers use policy
func NewLexiconContainer(policy analyzer.MergePolicy) *LexiconContainer {
	if policy == "" {
		policy = analyzer.DefaultMergePolicy
	}
	lc := &LexiconContainer{policy: policy}
	lc.serverStartTime.Store(time.Time{})
	return lc
}

// Policy returns the merge policy used for every snapshot
func (lc *LexiconContainer) Policy() analyzer.MergePolicy {
	return lc.policy
}

// GetLexicon returns the active lexicon, nil before the first load
func (lc *LexiconContainer) GetLexicon() *lexicon.Lexicon {
	if s := lc.current.Load(); s != nil {
		return s.lexicon
	}

	logging.Warn("Lexicon requested before it was loaded")
	return nil
}

// GetAnalyzer returns the analyzer bound to the active lexicon
func (lc *LexiconContainer) GetAnalyzer() *analyzer.Analyzer {
	if s := lc.current.Load(); s != nil {
		return s.analyzer
	}

	logging.Warn("Analyzer requested before the lexicon was loaded")
	return nil
}

// GetSource returns where the active lexicon was loaded from
func (lc *LexiconContainer) GetSource() string {
	if s := lc.current.Load(); s != nil {
		return s.source
	}
	return ""
}

// GetLastLoaded returns when the active lexicon was published
func (lc *LexiconContainer) GetLastLoaded() time.Time {
	if s := lc.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// IsReloading returns true while a reload is in progress
func (lc *LexiconContainer) IsReloading() bool {
	return lc.reloading.Load()
}

// SetServerStartTime sets the server start time
func (lc *LexiconContainer) SetServerStartTime(startTime time.Time) {
	lc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (lc *LexiconContainer) GetServerStartTime() time.Time {
	if startTime, ok := lc.serverStartTime.Load().(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

// UpdateLexicon publishes lex as the new snapshot. A nil lexicon is ignored.
func (lc *LexiconContainer) UpdateLexicon(lex *lexicon.Lexicon, source string) {
	if lex == nil {
		logging.Warn("Ignoring nil lexicon update", "source", source)
		return
	}

	lc.current.Store(&snapshot{
		lexicon:  lex,
		analyzer: analyzer.New(lex, lc.policy),
		source:   source,
		loadedAt: time.Now(),
	})
}

// BeginReload marks the start of a reload.
// Returns true if the reload can proceed, false if another one is running
func (lc *LexiconContainer) BeginReload() bool {
	return lc.reloading.CompareAndSwap(false, true)
}

// EndReload marks the end of a reload
func (lc *LexiconContainer) EndReload() {
	lc.reloading.Store(false)
}
