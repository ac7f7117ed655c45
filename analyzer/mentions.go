package analyzer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/normalize"
)

// MergePolicy decides what happens when several names of the same drug
// occur in one document
type MergePolicy string

const (
	// MergeOverwrite keeps the last matching name (in key, synonyms order)
	// and its dosage phrases
	MergeOverwrite MergePolicy = "overwrite"
	// MergeKeepFirst keeps the first matching name and its dosage phrases
	MergeKeepFirst MergePolicy = "keep-first"
	// MergeUnionDosages keeps the first matching name and collects the
	// dosage phrases of every matching name, without duplicates
	MergeUnionDosages MergePolicy = "union-dosages"
)

// DefaultMergePolicy reproduces the historical behaviour of the checker
const DefaultMergePolicy = MergeOverwrite

var ErrInvalidMergePolicy = errors.New("invalid merge policy")

// ParseMergePolicy maps a configuration value to a MergePolicy.
// An empty value selects DefaultMergePolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch p := MergePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultMergePolicy, nil
	case MergeOverwrite, MergeKeepFirst, MergeUnionDosages:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want %s, %s or %s)", ErrInvalidMergePolicy, s,
			MergeOverwrite, MergeKeepFirst, MergeUnionDosages)
	}
}

// Mention is a drug found in a document
type Mention struct {
	DrugKey       string   `json:"drugKey"`
	MatchedName   string   `json:"matchedName"`
	DosagePhrases []string `json:"dosagePhrases"`
}

// Mentions holds at most one Mention per drug key, in insertion order
type Mentions struct {
	order []string
	byKey map[string]*Mention
}

// NewMentions returns an empty set
func NewMentions() *Mentions {
	return &Mentions{byKey: make(map[string]*Mention)}
}

// Len returns the number of drugs found
func (m *Mentions) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Keys returns the drug keys in insertion order
func (m *Mentions) Keys() []string {
	if m == nil {
		return []string{}
	}
	return append([]string{}, m.order...)
}

// Get returns the mention of a drug key
func (m *Mentions) Get(key string) (Mention, bool) {
	if m == nil {
		return Mention{}, false
	}
	mention, ok := m.byKey[key]
	if !ok {
		return Mention{}, false
	}
	return *mention, true
}

// All returns the mentions in insertion order
func (m *Mentions) All() []Mention {
	all := make([]Mention, 0, m.Len())
	for _, key := range m.Keys() {
		all = append(all, *m.byKey[key])
	}
	return all
}

// Add records a name match for a drug according to policy
func (m *Mentions) Add(policy MergePolicy, key, name string, dosages []string) {
	existing, ok := m.byKey[key]
	if !ok {
		m.order = append(m.order, key)
		m.byKey[key] = &Mention{
			DrugKey:       key,
			MatchedName:   name,
			DosagePhrases: append([]string{}, dosages...),
		}
		return
	}

	switch policy {
	case MergeKeepFirst:
		// first match stays
	case MergeUnionDosages:
		for _, d := range dosages {
			if !slices.Contains(existing.DosagePhrases, d) {
				existing.DosagePhrases = append(existing.DosagePhrases, d)
			}
		}
	default:
		existing.MatchedName = name
		existing.DosagePhrases = append([]string{}, dosages...)
	}
}

// Finder scans documents for the names of a lexicon
type Finder struct {
	lexicon *lexicon.Lexicon
	policy  MergePolicy
}

// NewFinder creates a Finder. An unknown policy falls back to DefaultMergePolicy.
func NewFinder(lex *lexicon.Lexicon, policy MergePolicy) *Finder {
	if _, err := ParseMergePolicy(string(policy)); err != nil {
		policy = DefaultMergePolicy
	}
	if policy == "" {
		policy = DefaultMergePolicy
	}
	return &Finder{lexicon: lex, policy: policy}
}

// Policy returns the merge policy in use
func (f *Finder) Policy() MergePolicy {
	return f.policy
}

// FindMentions tests every drug name (canonical key, then synonyms) for
// containment in the normalized document. Each hit records the name and
// the dosage phrases found for it. Drugs appear in lexicon order.
func (f *Finder) FindMentions(documentText string) *Mentions {
	mentions := NewMentions()

	text := normalize.Text(documentText)
	if text == "" {
		return mentions
	}

	for _, key := range f.lexicon.Keys() {
		for _, name := range f.lexicon.Names(key) {
			if !normalize.Contains(text, name) {
				continue
			}
			mentions.Add(f.policy, key, name, extractNormalized(text, name))
		}
	}

	return mentions
}
