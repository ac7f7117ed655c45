package analyzer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/giygas/drugchecker-api/lexicon"
)

func TestClassifyBuckets(t *testing.T) {
	lex := testLexicon(t)

	tests := []struct {
		name      string
		text      string
		trimester lexicon.Trimester
		bucket    string
		key       string
	}{
		{"metotrexato first", "metotrexato", lexicon.First, "incompatible", "metotrexato"},
		{"aine second", "aine", lexicon.Second, "warnings", "aine"},
		{"aine first", "aine", lexicon.First, "compatible", "aine"},
		{"aine third", "ibuprofeno", lexicon.Third, "incompatible", "aine"},
		{"infliximab third", "remicade", lexicon.Third, "warnings", "infliximab"},
		{"anakinra second", "kineret", lexicon.Second, "compatible", "anakinra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := NewFinder(lex, MergeOverwrite).FindMentions(tt.text)
			report, err := Classify(lex, mentions, tt.trimester)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if report.Empty() {
				t.Fatal("Expected a classified report")
			}

			buckets := map[string][]DrugFinding{
				"incompatible": report.Findings.Incompatible,
				"warnings":     report.Findings.Warnings,
				"compatible":   report.Findings.Compatible,
			}
			for name, findings := range buckets {
				found := false
				for _, f := range findings {
					if f.DrugKey == tt.key {
						found = true
					}
				}
				if name == tt.bucket && !found {
					t.Errorf("Expected %s in %s", tt.key, name)
				}
				if name != tt.bucket && found {
					t.Errorf("Did not expect %s in %s", tt.key, name)
				}
			}
		})
	}
}

func TestClassifyEmpty(t *testing.T) {
	report, err := Classify(testLexicon(t), NewMentions(), lexicon.Second)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !report.Empty() {
		t.Fatal("Expected empty report")
	}
	if report.Title != EmptyReportTitle || report.Details != EmptyReportDetails {
		t.Errorf("Unexpected empty report: %+v", report)
	}
}

func TestClassifyInvalidTrimester(t *testing.T) {
	for _, tr := range []lexicon.Trimester{"", "fourth", "First"} {
		_, err := Classify(testLexicon(t), NewMentions(), tr)
		var terr *lexicon.InvalidTrimesterError
		if !errors.As(err, &terr) {
			t.Errorf("Classify(%q) error = %v, want InvalidTrimesterError", tr, err)
		}
	}
}

func TestClassifyUnknownKey(t *testing.T) {
	mentions := NewMentions()
	mentions.Add(MergeOverwrite, "paracetamol", "paracetamol", nil)

	_, err := Classify(testLexicon(t), mentions, lexicon.First)
	if !errors.Is(err, lexicon.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestClassifyFindingFields(t *testing.T) {
	lex := testLexicon(t)
	mentions := NewFinder(lex, MergeOverwrite).FindMentions("Metotrexato 15 mg semanal")

	report, err := Classify(lex, mentions, lexicon.First)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	if len(report.Findings.Incompatible) != 1 {
		t.Fatalf("Expected one incompatible finding, got %+v", report.Findings)
	}
	f := report.Findings.Incompatible[0]
	if f.DrugKey != "metotrexato" || f.MatchedName != "metotrexato" {
		t.Errorf("Unexpected names: %+v", f)
	}
	if f.Status != "❌ No compatible" {
		t.Errorf("Status = %q", f.Status)
	}
	if !strings.Contains(f.Notes, "Teratogénico") {
		t.Errorf("Notes = %q", f.Notes)
	}
	if len(f.DosagePhrases) != 1 || f.DosagePhrases[0] != "metotrexato 15 mg semanal" {
		t.Errorf("DosagePhrases = %q", f.DosagePhrases)
	}
}

func TestReportJSON(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		raw, err := json.Marshal(emptyReport(lexicon.First))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		expected := `{"title":"No se encontraron medicamentos","details":"No se detectaron medicamentos en el documento."}`
		if string(raw) != expected {
			t.Errorf("got %s, want %s", raw, expected)
		}
	})

	t.Run("classified", func(t *testing.T) {
		lex := testLexicon(t)
		report, err := Classify(lex, NewFinder(lex, MergeOverwrite).FindMentions("prednisona"), lexicon.First)
		if err != nil {
			t.Fatalf("Classify returned error: %v", err)
		}

		raw, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		var decoded struct {
			Title   string `json:"title"`
			Details struct {
				Incompatible []map[string]any `json:"incompatible"`
				Warnings     []map[string]any `json:"warnings"`
				Compatible   []map[string]any `json:"compatible"`
			} `json:"details"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}

		if decoded.Title != ReportTitle {
			t.Errorf("title = %q", decoded.Title)
		}
		if decoded.Details.Incompatible == nil || decoded.Details.Warnings == nil {
			t.Error("Empty buckets must be encoded as arrays, not null")
		}
		if len(decoded.Details.Compatible) != 1 {
			t.Fatalf("Expected one compatible finding, got %s", raw)
		}
		for _, field := range []string{"name", "originalName", "dosageInfo", "status", "notes"} {
			if _, ok := decoded.Details.Compatible[0][field]; !ok {
				t.Errorf("Finding is missing %q: %s", field, raw)
			}
		}
		if dosage, ok := decoded.Details.Compatible[0]["dosageInfo"].([]any); !ok || len(dosage) != 0 {
			t.Errorf("dosageInfo should be an empty array: %s", raw)
		}
	})
}

func TestAssess(t *testing.T) {
	lex := testLexicon(t)

	a, err := Assess(lex, "Remicade", lexicon.Third)
	if err != nil {
		t.Fatalf("Assess returned error: %v", err)
	}
	if a.DrugKey != "infliximab" || a.MatchedName != "Remicade" {
		t.Errorf("Unexpected assessment names: %+v", a)
	}
	if a.Level != "warning" || a.Trimester != lexicon.Third {
		t.Errorf("Unexpected assessment: %+v", a)
	}

	if _, err := Assess(lex, "paracetamol", lexicon.First); !errors.Is(err, lexicon.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := Assess(lex, "aine", "fourth"); !errors.Is(err, lexicon.ErrInvalidTrimester) {
		t.Errorf("Expected ErrInvalidTrimester, got %v", err)
	}
}
