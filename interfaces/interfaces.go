// Package interfaces defines the abstractions shared by the HTTP layer,
// the scheduler and the CLI so each can be tested against mocks.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/lexicon"
)

// LexiconStore holds the active lexicon snapshot. Readers always see a
// complete snapshot; reloads replace it atomically.
type LexiconStore interface {
	GetLexicon() *lexicon.Lexicon
	GetAnalyzer() *analyzer.Analyzer
	GetSource() string
	GetLastLoaded() time.Time
	IsReloading() bool
	GetServerStartTime() time.Time

	UpdateLexicon(lex *lexicon.Lexicon, source string)
	BeginReload() bool
	EndReload()
}

// DocumentExtractor turns an uploaded document into plain text
type DocumentExtractor interface {
	Extract(ctx context.Context, filename, contentType string, content []byte) (string, error)
	Supports(filename, contentType string) bool
}

// Scheduler manages the periodic lexicon reload
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the API endpoints
type HTTPHandler interface {
	AnalyzePDF(w http.ResponseWriter, r *http.Request)
	AnalyzeText(w http.ResponseWriter, r *http.Request)
	ListDrugs(w http.ResponseWriter, r *http.Request)
	GetDrug(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health
type HealthChecker interface {
	// HealthCheck returns the status, the details to report and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextReload returns the next scheduled lexicon reload, zero when reloads are off
	CalculateNextReload() time.Time
}

// InputValidator checks user supplied values before they reach the analyzer
type InputValidator interface {
	ValidateTrimester(input string) (lexicon.Trimester, error)
	ValidateDrugName(input string) error
	ValidateUpload(filename, contentType string, size int64) error
	ValidateText(input string) error
}
