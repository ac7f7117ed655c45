// Package handlers implements the HTTP endpoints of the drug checker API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

const (
	uploadField    = "pdf"
	trimesterField = "trimester"

	// multipartOverhead covers boundaries and the non-file fields of an upload
	multipartOverhead = 64 * 1024
)

// Limits bounds request sizes in bytes
type Limits struct {
	MaxUploadSize  int64
	MaxRequestBody int64
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store     interfaces.LexiconStore
	extractor interfaces.DocumentExtractor
	validator interfaces.InputValidator
	health    interfaces.HealthChecker
	limits    Limits
	newID     func() string
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	store interfaces.LexiconStore,
	extractor interfaces.DocumentExtractor,
	validator interfaces.InputValidator,
	health interfaces.HealthChecker,
	limits Limits,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:     store,
		extractor: extractor,
		validator: validator,
		health:    health,
		limits:    limits,
		newID:     uuid.NewString,
	}
}

// analyzer returns the current analyzer, answering 503 when none is loaded
func (h *HTTPHandlerImpl) analyzer(w http.ResponseWriter) (*analyzer.Analyzer, bool) {
	a := h.store.GetAnalyzer()
	if a == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, msgUnavailable)
		return nil, false
	}
	return a, true
}

// AnalyzePDF handles POST /api/analyze-pdf: a multipart upload with the
// document in the "pdf" field and an optional "trimester" field
func (h *HTTPHandlerImpl) AnalyzePDF(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analyzer(w)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.limits.MaxUploadSize + multipartOverhead); err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeInvalidInput).Inc()
		if errors.Is(err, http.ErrNotMultipart) {
			h.RespondWithError(w, http.StatusUnsupportedMediaType, msgNotMultipart)
			return
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			logging.Warn("Upload too large", "limit", h.limits.MaxUploadSize)
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		logging.Warn("Invalid multipart form", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, msgMissingFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeInvalidInput).Inc()
		h.RespondWithError(w, http.StatusBadRequest, msgMissingFile)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.validator.ValidateUpload(header.Filename, contentType, header.Size); err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeInvalidInput).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	trimester, err := h.validator.ValidateTrimester(r.FormValue(trimesterField))
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeInvalidInput).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	if !h.extractor.Supports(header.Filename, contentType) {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeUnsupportedType).Inc()
		logging.Warn("Unsupported upload type", "file", header.Filename, "content_type", contentType)
		h.RespondWithError(w, http.StatusUnsupportedMediaType, msgUnsupported)
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, h.limits.MaxUploadSize+1))
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeExtractionFailed).Inc()
		h.respondWithPipelineError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	start := time.Now()
	text, err := h.extractor.Extract(r.Context(), header.Filename, contentType, content)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourcePDF, metrics.OutcomeExtractionFailed).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	h.respondWithReport(w, r, a, metrics.SourcePDF, text, trimester, header.Filename)
}

type analyzeTextRequest struct {
	Text      string `json:"text"`
	Trimester string `json:"trimester"`
}

// AnalyzeText handles POST /api/analyze with a JSON body {text, trimester}
func (h *HTTPHandlerImpl) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analyzer(w)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxRequestBody)

	var req analyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceText, metrics.OutcomeInvalidInput).Inc()
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		logging.Warn("Invalid JSON body", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if err := h.validator.ValidateText(req.Text); err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceText, metrics.OutcomeInvalidInput).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	trimester, err := h.validator.ValidateTrimester(req.Trimester)
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceText, metrics.OutcomeInvalidInput).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	h.respondWithReport(w, r, a, metrics.SourceText, req.Text, trimester, "")
}

func (h *HTTPHandlerImpl) respondWithReport(w http.ResponseWriter, r *http.Request, a *analyzer.Analyzer,
	source, text string, trimester lexicon.Trimester, fileName string) {

	report, err := a.Analyze(text, trimester)
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(source, metrics.OutcomeClassificationFail).Inc()
		h.respondWithPipelineError(w, r, err)
		return
	}

	metrics.DocumentsAnalyzed.WithLabelValues(source, metrics.OutcomeSuccess).Inc()
	found := 0
	if !report.Empty() {
		found = report.Findings.Total()
		metrics.RecordFindings(len(report.Findings.Incompatible), len(report.Findings.Warnings), len(report.Findings.Compatible))
	}

	id := h.newID()
	logging.Info("Document analyzed",
		"analysis_id", id,
		"source", source,
		"trimester", trimester,
		"drugs_found", found,
		"text_bytes", len(text),
	)

	h.RespondWithJSON(w, http.StatusOK, AnalysisResponse{
		Success:    true,
		Report:     report,
		FileName:   fileName,
		AnalysisID: id,
	})
}

// ListDrugs handles GET /api/drugs
func (h *HTTPHandlerImpl) ListDrugs(w http.ResponseWriter, r *http.Request) {
	lex := h.store.GetLexicon()
	if lex == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, DrugsResponse{
		Drugs:    lex.Keys(),
		Synonyms: lex.SynonymTable(),
	})
}

// GetDrug handles GET /api/drugs/{name}. The name may be a key or a synonym;
// with ?trimester= the response also carries the compatibility assessment.
func (h *HTTPHandlerImpl) GetDrug(w http.ResponseWriter, r *http.Request) {
	lex := h.store.GetLexicon()
	if lex == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "invalid drug name encoding")
		return
	}
	if err := h.validator.ValidateDrugName(name); err != nil {
		h.respondWithPipelineError(w, r, err)
		return
	}

	record, ok := lex.Lookup(name)
	if !ok {
		logging.Info("Drug not found", "name", name)
		h.RespondWithError(w, http.StatusNotFound, msgDrugNotFound)
		return
	}

	detail := DrugDetail{
		Name:     record.Key,
		Synonyms: lex.SynonymsOf(record.Key),
		Status:   record.Status,
		Notes:    record.Notes,
	}

	if raw := r.URL.Query().Get(trimesterField); strings.TrimSpace(raw) != "" {
		trimester, err := h.validator.ValidateTrimester(raw)
		if err != nil {
			h.respondWithPipelineError(w, r, err)
			return
		}
		assessment, err := analyzer.Assess(lex, name, trimester)
		if err != nil {
			h.respondWithPipelineError(w, r, err)
			return
		}
		detail.Assessment = &assessment
	}

	h.RespondWithJSON(w, http.StatusOK, DrugResponse{Success: true, Drug: detail})
}

// HealthCheck handles GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	if start := h.store.GetServerStartTime(); !start.IsZero() {
		response.Uptime = formatUptimeHuman(time.Since(start))
	}

	h.RespondWithJSON(w, httpStatus, response)
}
