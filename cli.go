package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/document"
	"github.com/giygas/drugchecker-api/handlers"
	"github.com/giygas/drugchecker-api/lexicon"
	"github.com/giygas/drugchecker-api/metrics"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a local PDF or text file and print the JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trimester, _ := cmd.Flags().GetString("trimester")
			policy, _ := cmd.Flags().GetString("merge-policy")
			lexiconFile, _ := cmd.Flags().GetString("lexicon")
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], trimester, policy, lexiconFile)
		},
	}
	cmd.Flags().String("trimester", string(lexicon.First), "Trimester to classify for: first, second or third")
	cmd.Flags().String("merge-policy", string(analyzer.DefaultMergePolicy), "How repeated mentions of a drug merge: overwrite, keep-first or union-dosages")
	cmd.Flags().String("lexicon", os.Getenv("LEXICON_FILE"), "Lexicon YAML file, the embedded table when empty")
	return cmd
}

func drugsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drugs",
		Short: "Print the drug keys and synonyms of the lexicon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lexiconFile, _ := cmd.Flags().GetString("lexicon")
			return runDrugs(cmd.OutOrStdout(), lexiconFile)
		},
	}
	cmd.Flags().String("lexicon", os.Getenv("LEXICON_FILE"), "Lexicon YAML file, the embedded table when empty")
	return cmd
}

func validateLexiconCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-lexicon [FILE]",
		Short: "Load and validate a lexicon table, the embedded one without FILE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidateLexicon(cmd.OutOrStdout(), path)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func runAnalyze(ctx context.Context, out io.Writer, path, trimesterFlag, policyFlag, lexiconFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	trimester, err := lexicon.ParseTrimester(trimesterFlag)
	if err != nil {
		return err
	}
	policy, err := analyzer.ParseMergePolicy(policyFlag)
	if err != nil {
		return err
	}

	lex, _, err := lexicon.Load(lexiconFile)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	registry := document.DefaultRegistry()
	contentType := ""
	if !registry.Supports(path, "") {
		contentType = http.DetectContentType(content)
	}

	text, err := registry.Extract(ctx, filepath.Base(path), contentType, content)
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceCLI, metrics.OutcomeExtractionFailed).Inc()
		return err
	}

	report, err := analyzer.New(lex, policy).Analyze(text, trimester)
	if err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceCLI, metrics.OutcomeClassificationFail).Inc()
		return err
	}
	metrics.DocumentsAnalyzed.WithLabelValues(metrics.SourceCLI, metrics.OutcomeSuccess).Inc()

	return writeJSON(out, map[string]any{
		"fileName":  filepath.Base(path),
		"trimester": trimester,
		"report":    report,
	})
}

func runDrugs(out io.Writer, lexiconFile string) error {
	lex, _, err := lexicon.Load(lexiconFile)
	if err != nil {
		return err
	}
	return writeJSON(out, handlers.DrugsResponse{
		Drugs:    lex.Keys(),
		Synonyms: lex.SynonymTable(),
	})
}

func runValidateLexicon(out io.Writer, path string) error {
	lex, source, err := lexicon.Load(path)
	if err != nil {
		var verr *lexicon.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "%s: %d problem(s)\n", sourceLabel(path), len(verr.Problems))
			for _, p := range verr.Problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
		}
		return err
	}

	fmt.Fprintf(out, "%s: ok, %d drugs, %d synonyms\n", source, lex.Len(), lex.SynonymCount())
	return nil
}

func sourceLabel(path string) string {
	if strings.TrimSpace(path) == "" {
		return lexicon.DefaultSource
	}
	return path
}
