package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/document"
	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/validation"
)

// AnalysisResponse is returned by both analysis endpoints
type AnalysisResponse struct {
	Success    bool            `json:"success"`
	Report     analyzer.Report `json:"report"`
	FileName   string          `json:"fileName,omitempty"`
	AnalysisID string          `json:"analysisId"`
}

// DrugsResponse lists the lexicon keys and the synonyms of every key
type DrugsResponse struct {
	Drugs    []string            `json:"drugs"`
	Synonyms map[string][]string `json:"synonyms"`
}

// DrugDetail describes a single lexicon entry
type DrugDetail struct {
	Name       string                       `json:"name"`
	Synonyms   []string                     `json:"synonyms"`
	Status     map[lexicon.Trimester]string `json:"status"`
	Notes      string                       `json:"notes"`
	Assessment *analyzer.Assessment         `json:"assessment,omitempty"`
}

// DrugResponse wraps a DrugDetail
type DrugResponse struct {
	Success bool       `json:"success"`
	Drug    DrugDetail `json:"drug"`
}

// ErrorResponse is the body of every error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse keeps a stable field order
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime,omitempty"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

const (
	msgMissingFile    = "No se ha proporcionado ningún archivo PDF"
	msgTooLarge       = "El archivo supera el tamaño máximo permitido"
	msgUnsupported    = "Tipo de documento no soportado"
	msgParseFailed    = "Error al procesar el archivo PDF"
	msgInvalidJSON    = "El cuerpo de la petición no es un JSON válido"
	msgNotMultipart   = "Se esperaba un formulario multipart/form-data"
	msgDrugNotFound   = "Medicamento no encontrado"
	msgUnavailable    = "El listado de medicamentos no está disponible"
	msgInternalServer = "Error interno del servidor"
)

// RespondWithJSON writes payload as JSON with the given status code
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes {success: false, error: message}
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, ErrorResponse{Success: false, Error: message})
}

// errorStatus maps a pipeline error to a status code and a client message.
// Internal details are never echoed for 5xx.
func errorStatus(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	var parseErr *document.ParseError
	var trimesterErr *lexicon.InvalidTrimesterError

	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, validation.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, document.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, msgUnsupported
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, msgParseFailed
	case errors.As(err, &trimesterErr):
		return http.StatusBadRequest, trimesterErr.Error()
	case errors.Is(err, validation.ErrInvalidInput):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), validation.ErrInvalidInput.Error()+": ")
	case errors.Is(err, lexicon.ErrNotFound):
		return http.StatusNotFound, msgDrugNotFound
	default:
		return http.StatusInternalServerError, msgInternalServer
	}
}

// respondWithPipelineError logs err and answers with its mapped status
func (h *HTTPHandlerImpl) respondWithPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := errorStatus(err)
	if code >= http.StatusInternalServerError {
		logging.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		logging.Warn("Request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	h.RespondWithError(w, code, message)
}

// formatUptimeHuman formats a duration as "1d 2h 3m 4s"
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
