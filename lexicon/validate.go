package lexicon

import (
	"fmt"
	"strings"

	"github.com/giygas/drugchecker-api/normalize"
)

// ValidationError lists every structural problem found in a table
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid lexicon (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func containsMarker(status, marker string) bool {
	return marker != "" && strings.Contains(status, marker)
}

// validate checks the structural invariants of a table: unique lowercase
// keys, a status for each trimester, non-blank synonyms and names that
// resolve to a single drug.
func validate(records []DrugRecord, markers Markers) *ValidationError {
	var problems []string

	if len(records) == 0 {
		problems = append(problems, "no drugs defined")
	}

	if strings.TrimSpace(markers.Incompatible) == "" {
		problems = append(problems, "incompatible marker is empty")
	}
	if strings.TrimSpace(markers.Warning) == "" {
		problems = append(problems, "warning marker is empty")
	}
	if markers.Incompatible != "" && markers.Incompatible == markers.Warning {
		problems = append(problems, "incompatible and warning markers must differ")
	}

	seenKeys := make(map[string]bool, len(records))
	owner := make(map[string]string) // normalized name -> key

	claim := func(name, key string) {
		n := normalize.Text(name)
		if prev, ok := owner[n]; ok && prev != key {
			problems = append(problems, fmt.Sprintf("name %q is used by both %q and %q", name, prev, key))
			return
		}
		owner[n] = key
	}

	for i, rec := range records {
		label := fmt.Sprintf("drug #%d (%s)", i+1, rec.Key)

		switch {
		case strings.TrimSpace(rec.Key) == "":
			problems = append(problems, fmt.Sprintf("drug #%d: empty key", i+1))
			continue
		case rec.Key != strings.ToLower(strings.TrimSpace(rec.Key)):
			problems = append(problems, fmt.Sprintf("%s: key must be lowercase without surrounding spaces", label))
		}

		if seenKeys[rec.Key] {
			problems = append(problems, fmt.Sprintf("%s: duplicate key", label))
			continue
		}
		seenKeys[rec.Key] = true
		claim(rec.Key, rec.Key)

		for _, t := range Trimesters() {
			if strings.TrimSpace(rec.Status[t]) == "" {
				problems = append(problems, fmt.Sprintf("%s: missing status for %s trimester", label, t))
			}
		}

		for j, syn := range rec.Synonyms {
			if normalize.Text(syn) == "" {
				problems = append(problems, fmt.Sprintf("%s: synonym #%d is blank", label, j+1))
				continue
			}
			claim(syn, rec.Key)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
