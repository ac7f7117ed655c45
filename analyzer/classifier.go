package analyzer

import (
	"fmt"

	"github.com/giygas/drugchecker-api/lexicon"
)

// Classify sorts the mentions into incompatible, warning and compatible
// buckets using the status each drug has for trimester. Bucket order is the
// insertion order of mentions.
func Classify(lex *lexicon.Lexicon, mentions *Mentions, trimester lexicon.Trimester) (Report, error) {
	if !trimester.Valid() {
		return Report{}, &lexicon.InvalidTrimesterError{Value: string(trimester)}
	}

	if mentions.Len() == 0 {
		return emptyReport(trimester), nil
	}

	markers := lex.Markers()
	findings := newFindings()

	for _, mention := range mentions.All() {
		finding, level, err := classifyMention(lex, markers, mention, trimester)
		if err != nil {
			return Report{}, err
		}

		switch level {
		case lexicon.LevelIncompatible:
			findings.Incompatible = append(findings.Incompatible, finding)
		case lexicon.LevelWarning:
			findings.Warnings = append(findings.Warnings, finding)
		default:
			findings.Compatible = append(findings.Compatible, finding)
		}
	}

	return Report{
		Title:     ReportTitle,
		Findings:  findings,
		Trimester: trimester,
	}, nil
}

func classifyMention(lex *lexicon.Lexicon, markers lexicon.Markers, mention Mention, t lexicon.Trimester) (DrugFinding, lexicon.Level, error) {
	record, err := lex.Record(mention.DrugKey)
	if err != nil {
		return DrugFinding{}, 0, fmt.Errorf("failed to classify %q: %w", mention.DrugKey, err)
	}

	status := record.Status[t]
	dosages := mention.DosagePhrases
	if dosages == nil {
		dosages = []string{}
	}

	return DrugFinding{
		DrugKey:       mention.DrugKey,
		MatchedName:   mention.MatchedName,
		DosagePhrases: dosages,
		Status:        status,
		Notes:         record.Notes,
	}, markers.Level(status), nil
}

// Assessment is the compatibility of a single drug looked up by name
type Assessment struct {
	DrugFinding
	Trimester lexicon.Trimester `json:"trimester"`
	Level     string            `json:"level"`
}

// Assess resolves name (canonical key or synonym) and classifies it for
// trimester. Unknown names wrap lexicon.ErrNotFound.
func Assess(lex *lexicon.Lexicon, name string, trimester lexicon.Trimester) (Assessment, error) {
	if !trimester.Valid() {
		return Assessment{}, &lexicon.InvalidTrimesterError{Value: string(trimester)}
	}

	record, ok := lex.Lookup(name)
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %q", lexicon.ErrNotFound, name)
	}

	finding, level, err := classifyMention(lex, lex.Markers(), Mention{
		DrugKey:     record.Key,
		MatchedName: name,
	}, trimester)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		DrugFinding: finding,
		Trimester:   trimester,
		Level:       level.String(),
	}, nil
}
