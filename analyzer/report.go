package analyzer

import (
	"encoding/json"

	"github.com/giygas/drugchecker-api/lexicon"
)

const (
	EmptyReportTitle   = "No se encontraron medicamentos"
	EmptyReportDetails = "No se detectaron medicamentos en el documento."
	ReportTitle        = "Resumen de Compatibilidad"
)

// DrugFinding is a classified mention
type DrugFinding struct {
	DrugKey       string   `json:"name"`
	MatchedName   string   `json:"originalName"`
	DosagePhrases []string `json:"dosageInfo"`
	Status        string   `json:"status"`
	Notes         string   `json:"notes"`
}

// Findings are the classified mentions, one bucket per compatibility level
type Findings struct {
	Incompatible []DrugFinding `json:"incompatible"`
	Warnings     []DrugFinding `json:"warnings"`
	Compatible   []DrugFinding `json:"compatible"`
}

func newFindings() *Findings {
	return &Findings{
		Incompatible: []DrugFinding{},
		Warnings:     []DrugFinding{},
		Compatible:   []DrugFinding{},
	}
}

// Total returns the number of findings across buckets
func (f *Findings) Total() int {
	return len(f.Incompatible) + len(f.Warnings) + len(f.Compatible)
}

// Report is the result of an analysis. When no drug matched, Findings is
// nil and Details carries a message instead.
type Report struct {
	Title     string
	Details   string
	Findings  *Findings
	Trimester lexicon.Trimester
}

// Empty reports whether no drug was found
func (r Report) Empty() bool {
	return r.Findings == nil
}

// MarshalJSON renders {title, details} where details is either the message
// or the three buckets
func (r Report) MarshalJSON() ([]byte, error) {
	if r.Findings == nil {
		return json.Marshal(struct {
			Title   string `json:"title"`
			Details string `json:"details"`
		}{r.Title, r.Details})
	}

	return json.Marshal(struct {
		Title   string    `json:"title"`
		Details *Findings `json:"details"`
	}{r.Title, r.Findings})
}

func emptyReport(t lexicon.Trimester) Report {
	return Report{
		Title:     EmptyReportTitle,
		Details:   EmptyReportDetails,
		Trimester: t,
	}
}
