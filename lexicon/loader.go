package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed drugs.yaml
var embeddedTable []byte

// DefaultSource labels the lexicon built from the embedded table
const DefaultSource = "embedded:drugs.yaml"

type tableFile struct {
	Markers Markers     `yaml:"markers"`
	Drugs   []drugEntry `yaml:"drugs"`
}

type drugEntry struct {
	Key      string            `yaml:"key"`
	Status   map[string]string `yaml:"status"`
	Notes    string            `yaml:"notes"`
	Synonyms []string          `yaml:"synonyms"`
}

// Default builds the lexicon shipped with the binary
func Default() (*Lexicon, error) {
	lex, err := Parse(embeddedTable)
	if err != nil {
		return nil, fmt.Errorf("embedded lexicon: %w", err)
	}
	return lex, nil
}

// LoadFile reads and validates a YAML table from disk
func LoadFile(path string) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}

	lex, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("lexicon file %s: %w", path, err)
	}
	return lex, nil
}

// Load returns the table at path, or the embedded one when path is empty.
// An http(s) path is downloaded. The second value labels where the table
// came from.
func Load(path string) (*Lexicon, string, error) {
	if strings.TrimSpace(path) == "" {
		lex, err := Default()
		return lex, DefaultSource, err
	}
	if IsRemote(path) {
		lex, err := LoadURL(path)
		return lex, path, err
	}
	lex, err := LoadFile(path)
	return lex, path, err
}

// Parse decodes a YAML table and validates it
func Parse(raw []byte) (*Lexicon, error) {
	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	records := make([]DrugRecord, 0, len(file.Drugs))
	var problems []string

	for i, entry := range file.Drugs {
		status := make(map[Trimester]string, len(entry.Status))
		for name, label := range entry.Status {
			t := Trimester(strings.ToLower(strings.TrimSpace(name)))
			if !t.Valid() {
				problems = append(problems, fmt.Sprintf("drug #%d (%s): unknown trimester %q", i+1, entry.Key, name))
				continue
			}
			status[t] = label
		}

		records = append(records, DrugRecord{
			Key:      entry.Key,
			Status:   status,
			Notes:    entry.Notes,
			Synonyms: entry.Synonyms,
		})
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	return New(records, file.Markers)
}
