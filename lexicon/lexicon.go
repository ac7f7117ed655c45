// Package lexicon holds the drug compatibility table: canonical drug keys,
// their status label per trimester, clinical notes and synonyms.
//
// A Lexicon is built once and never mutated. Reloading the table produces a
// new Lexicon value, so a *Lexicon can be shared by any number of goroutines.
package lexicon

import (
	"errors"
	"fmt"

	"github.com/giygas/drugchecker-api/normalize"
)

// ErrNotFound is returned when a key or name is not part of the lexicon
var ErrNotFound = errors.New("drug not found in lexicon")

// DrugRecord is one entry of the compatibility table
type DrugRecord struct {
	Key      string               `json:"key"`
	Status   map[Trimester]string `json:"status"`
	Notes    string               `json:"notes"`
	Synonyms []string             `json:"synonyms"`
}

// StatusFor returns the status label for a trimester
func (r DrugRecord) StatusFor(t Trimester) (string, error) {
	if !t.Valid() {
		return "", &InvalidTrimesterError{Value: string(t)}
	}
	return r.Status[t], nil
}

func (r DrugRecord) clone() DrugRecord {
	status := make(map[Trimester]string, len(r.Status))
	for t, s := range r.Status {
		status[t] = s
	}
	return DrugRecord{
		Key:      r.Key,
		Status:   status,
		Notes:    r.Notes,
		Synonyms: append([]string{}, r.Synonyms...),
	}
}

// Markers are the substrings that flag a status label
type Markers struct {
	Incompatible string `json:"incompatible" yaml:"incompatible"`
	Warning      string `json:"warning" yaml:"warning"`
}

// Level is the compatibility level a status label encodes
type Level int

const (
	LevelCompatible Level = iota
	LevelWarning
	LevelIncompatible
)

func (l Level) String() string {
	switch l {
	case LevelIncompatible:
		return "incompatible"
	case LevelWarning:
		return "warning"
	default:
		return "compatible"
	}
}

// Level classifies a status label. The incompatible marker takes
// precedence over the warning marker.
func (m Markers) Level(status string) Level {
	switch {
	case containsMarker(status, m.Incompatible):
		return LevelIncompatible
	case containsMarker(status, m.Warning):
		return LevelWarning
	default:
		return LevelCompatible
	}
}

// Lexicon is the immutable, validated compatibility table
type Lexicon struct {
	records []DrugRecord
	byKey   map[string]int
	byName  map[string]string // normalized key or synonym -> key
	markers Markers
}

// New validates the records and builds a Lexicon from them. Records keep
// their order: it drives the iteration order of Keys and of the analysis.
func New(records []DrugRecord, markers Markers) (*Lexicon, error) {
	if verr := validate(records, markers); verr != nil {
		return nil, verr
	}

	lex := &Lexicon{
		records: make([]DrugRecord, 0, len(records)),
		byKey:   make(map[string]int, len(records)),
		byName:  make(map[string]string),
		markers: markers,
	}

	for _, rec := range records {
		lex.byKey[rec.Key] = len(lex.records)
		lex.records = append(lex.records, rec.clone())

		lex.byName[normalize.Text(rec.Key)] = rec.Key
		for _, syn := range rec.Synonyms {
			lex.byName[normalize.Text(syn)] = rec.Key
		}
	}

	return lex, nil
}

// Keys returns the canonical drug keys in table order
func (l *Lexicon) Keys() []string {
	keys := make([]string, len(l.records))
	for i, rec := range l.records {
		keys[i] = rec.Key
	}
	return keys
}

// Len returns the number of drugs
func (l *Lexicon) Len() int {
	return len(l.records)
}

// Has reports whether key is a canonical drug key
func (l *Lexicon) Has(key string) bool {
	_, ok := l.byKey[key]
	return ok
}

// Record returns a copy of the record for a canonical key
func (l *Lexicon) Record(key string) (DrugRecord, error) {
	i, ok := l.byKey[key]
	if !ok {
		return DrugRecord{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return l.records[i].clone(), nil
}

// SynonymsOf returns the synonyms of key, an empty slice if it has none or
// is unknown.
func (l *Lexicon) SynonymsOf(key string) []string {
	i, ok := l.byKey[key]
	if !ok {
		return []string{}
	}
	return append([]string{}, l.records[i].Synonyms...)
}

// Names returns the canonical key followed by its synonyms, in table order
func (l *Lexicon) Names(key string) []string {
	i, ok := l.byKey[key]
	if !ok {
		return []string{}
	}
	rec := l.records[i]
	names := make([]string, 0, len(rec.Synonyms)+1)
	names = append(names, rec.Key)
	return append(names, rec.Synonyms...)
}

// SynonymTable returns every key mapped to its synonyms
func (l *Lexicon) SynonymTable() map[string][]string {
	table := make(map[string][]string, len(l.records))
	for _, rec := range l.records {
		table[rec.Key] = append([]string{}, rec.Synonyms...)
	}
	return table
}

// SynonymCount returns the total number of synonyms in the table
func (l *Lexicon) SynonymCount() int {
	n := 0
	for _, rec := range l.records {
		n += len(rec.Synonyms)
	}
	return n
}

// Lookup resolves a canonical key or a synonym, ignoring case and diacritics
func (l *Lexicon) Lookup(name string) (DrugRecord, bool) {
	key, ok := l.byName[normalize.Text(name)]
	if !ok {
		return DrugRecord{}, false
	}
	rec, err := l.Record(key)
	if err != nil {
		return DrugRecord{}, false
	}
	return rec, true
}

// Markers returns the status markers this table uses
func (l *Lexicon) Markers() Markers {
	return l.markers
}
