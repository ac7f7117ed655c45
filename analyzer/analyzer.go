package analyzer

import (
	"github.com/giygas/drugchecker-api/lexicon"
)

// Analyzer runs the whole pipeline against one lexicon snapshot
type Analyzer struct {
	lexicon *lexicon.Lexicon
	finder  *Finder
}

// New creates an Analyzer for lex using the given merge policy
func New(lex *lexicon.Lexicon, policy MergePolicy) *Analyzer {
	return &Analyzer{
		lexicon: lex,
		finder:  NewFinder(lex, policy),
	}
}

// Lexicon returns the snapshot the analyzer works with
func (a *Analyzer) Lexicon() *lexicon.Lexicon {
	return a.lexicon
}

// FindMentions delegates to the underlying Finder
func (a *Analyzer) FindMentions(text string) *Mentions {
	return a.finder.FindMentions(text)
}

// Analyze finds the drugs mentioned in text and classifies them for trimester
func (a *Analyzer) Analyze(text string, trimester lexicon.Trimester) (Report, error) {
	if !trimester.Valid() {
		return Report{}, &lexicon.InvalidTrimesterError{Value: string(trimester)}
	}
	return Classify(a.lexicon, a.finder.FindMentions(text), trimester)
}
