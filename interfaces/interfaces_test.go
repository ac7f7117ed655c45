package interfaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/lexicon"
)

type mockLexiconStore struct {
	lex       *lexicon.Lexicon
	source    string
	loaded    time.Time
	reloading bool
	start     time.Time
}

func (m *mockLexiconStore) GetLexicon() *lexicon.Lexicon { return m.lex }
func (m *mockLexiconStore) GetAnalyzer() *analyzer.Analyzer {
	return analyzer.New(m.lex, analyzer.DefaultMergePolicy)
}
func (m *mockLexiconStore) GetSource() string             { return m.source }
func (m *mockLexiconStore) GetLastLoaded() time.Time      { return m.loaded }
func (m *mockLexiconStore) IsReloading() bool             { return m.reloading }
func (m *mockLexiconStore) GetServerStartTime() time.Time { return m.start }
func (m *mockLexiconStore) UpdateLexicon(lex *lexicon.Lexicon, source string) {
	m.lex, m.source, m.loaded = lex, source, time.Now()
}
func (m *mockLexiconStore) BeginReload() bool {
	if m.reloading {
		return false
	}
	m.reloading = true
	return true
}
func (m *mockLexiconStore) EndReload() { m.reloading = false }

type mockExtractor struct{ text string }

func (m *mockExtractor) Extract(context.Context, string, string, []byte) (string, error) {
	return m.text, nil
}
func (m *mockExtractor) Supports(string, string) bool { return true }

type mockHandler struct{ called string }

func (m *mockHandler) AnalyzePDF(w http.ResponseWriter, r *http.Request)  { m.called = "pdf" }
func (m *mockHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) { m.called = "text" }
func (m *mockHandler) ListDrugs(w http.ResponseWriter, r *http.Request)   { m.called = "list" }
func (m *mockHandler) GetDrug(w http.ResponseWriter, r *http.Request)     { m.called = "drug" }
func (m *mockHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { m.called = "health" }

type mockHealthChecker struct{}

func (mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return "healthy", map[string]any{}, http.StatusOK
}
func (mockHealthChecker) CalculateNextReload() time.Time { return time.Time{} }

var (
	_ LexiconStore      = (*mockLexiconStore)(nil)
	_ DocumentExtractor = (*mockExtractor)(nil)
	_ HTTPHandler       = (*mockHandler)(nil)
	_ HealthChecker     = mockHealthChecker{}
)

func TestLexiconStoreContract(t *testing.T) {
	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("lexicon.Default: %v", err)
	}

	var store LexiconStore = &mockLexiconStore{}
	if !store.BeginReload() {
		t.Fatal("first BeginReload should succeed")
	}
	if store.BeginReload() {
		t.Error("second BeginReload should fail while reloading")
	}

	store.UpdateLexicon(lex, lexicon.DefaultSource)
	store.EndReload()

	if store.IsReloading() {
		t.Error("expected reload to be finished")
	}
	if store.GetLexicon().Len() != 8 {
		t.Errorf("expected 8 drugs, got %d", store.GetLexicon().Len())
	}
	if store.GetSource() != lexicon.DefaultSource {
		t.Errorf("unexpected source %q", store.GetSource())
	}

	report, err := store.GetAnalyzer().Analyze("prednisona 5 mg", lexicon.First)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Empty() {
		t.Error("expected a finding for prednisona")
	}
}

func TestHTTPHandlerContract(t *testing.T) {
	h := &mockHandler{}
	var handler HTTPHandler = h

	routes := []struct {
		fn   http.HandlerFunc
		want string
	}{
		{handler.AnalyzePDF, "pdf"},
		{handler.AnalyzeText, "text"},
		{handler.ListDrugs, "list"},
		{handler.GetDrug, "drug"},
		{handler.HealthCheck, "health"},
	}

	for _, route := range routes {
		route.fn(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if h.called != route.want {
			t.Errorf("expected %s to be called, got %s", route.want, h.called)
		}
	}
}
