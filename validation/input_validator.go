// Package validation checks user supplied values before they reach the analyzer.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/lexicon"
)

var (
	// ErrInvalidInput wraps every rejection of a user value
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileTooLarge is returned for uploads over the configured limit
	ErrFileTooLarge = errors.New("file too large")
)

var (
	// Letters, digits, spaces, Spanish accents and safe punctuation
	drugNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'áéíóúüñÁÉÍÓÚÜÑ]+$`)

	// Plain substring checks, cheaper than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		"; ", "| ", "& ", "`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

const (
	minDrugNameLength = 2
	maxDrugNameLength = 50
	maxDrugNameWords  = 4
	maxRepeatedChars  = 10
)

// Compile-time check to ensure InputValidatorImpl implements InputValidator
var _ interfaces.InputValidator = (*InputValidatorImpl)(nil)

// InputValidatorImpl implements interfaces.InputValidator
type InputValidatorImpl struct {
	maxUploadSize int64
	maxTextLength int64
}

// NewInputValidator creates a validator with the given upload and text limits in bytes
func NewInputValidator(maxUploadSize, maxTextLength int64) *InputValidatorImpl {
	return &InputValidatorImpl{
		maxUploadSize: maxUploadSize,
		maxTextLength: maxTextLength,
	}
}

// ValidateTrimester parses a request trimester. A missing value means the
// first trimester; an unrecognized one is rejected.
func (v *InputValidatorImpl) ValidateTrimester(input string) (lexicon.Trimester, error) {
	if strings.TrimSpace(input) == "" {
		return lexicon.First, nil
	}

	t, err := lexicon.ParseTrimester(input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return t, nil
}

// ValidateDrugName checks a drug name typed by a user
func (v *InputValidatorImpl) ValidateDrugName(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("%w: drug name cannot be empty", ErrInvalidInput)
	}

	length := utf8.RuneCountInString(trimmed)
	if length < minDrugNameLength {
		return fmt.Errorf("%w: drug name too short: minimum %d characters", ErrInvalidInput, minDrugNameLength)
	}
	if length > maxDrugNameLength {
		return fmt.Errorf("%w: drug name too long: maximum %d characters", ErrInvalidInput, maxDrugNameLength)
	}

	if len(strings.Fields(trimmed)) > maxDrugNameWords {
		return fmt.Errorf("%w: drug name too complex: maximum %d words", ErrInvalidInput, maxDrugNameWords)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: drug name contains potentially dangerous content", ErrInvalidInput)
		}
	}

	if !drugNameRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: drug name contains invalid characters", ErrInvalidInput)
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("%w: drug name contains excessive character repetition", ErrInvalidInput)
	}

	return nil
}

// ValidateUpload checks the metadata of an uploaded file. Whether the type can
// be read is decided by the document extractors.
func (v *InputValidatorImpl) ValidateUpload(filename, contentType string, size int64) error {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("%w: file name is missing", ErrInvalidInput)
	}
	if size <= 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if v.maxUploadSize > 0 && size > v.maxUploadSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, size, v.maxUploadSize)
	}
	return nil
}

// ValidateText checks a text submitted for analysis
func (v *InputValidatorImpl) ValidateText(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidInput)
	}
	if v.maxTextLength > 0 && int64(len(input)) > v.maxTextLength {
		return fmt.Errorf("%w: text exceeds the %d byte limit", ErrFileTooLarge, v.maxTextLength)
	}
	return nil
}

// hasExcessiveRepetition reports a character repeated more than maxRepeatedChars times in a row
func hasExcessiveRepetition(input string) bool {
	run := 0
	var prev rune
	for i, r := range input {
		if i > 0 && r == prev {
			run++
			if run >= maxRepeatedChars {
				return true
			}
			continue
		}
		prev, run = r, 0
	}
	return false
}
