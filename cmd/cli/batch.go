package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgehub/bridge/internal/bridge"
	"github.com/bridgehub/bridge/pkg/model"
)

func batchCmd() *cobra.Command {
	var (
		flags       queryFlags
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer every question in a file, one per line",
		Long: `Reads questions one per line (blank lines and lines starting with # are skipped)
and answers them concurrently. Answers are printed in input order.

Examples:
  bridge batch --file questions.txt
  cat questions.txt | bridge batch --concurrency 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open questions: %w", err)
				}
				defer f.Close()
				in = f
			}

			questions, err := readQuestions(in)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions to answer")
			}

			queries := make([]model.QueryRequest, len(questions))
			for i, text := range questions {
				q, err := flags.query(text)
				if err != nil {
					return fmt.Errorf("question %d: %w", i+1, err)
				}
				queries[i] = q
			}

			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := cmd.OutOrStdout()
			failed := 0
			for i, env := range a.Pipeline.ProcessBatch(ctx, queries, concurrency) {
				fmt.Fprintf(out, "=== %d. %s\n", i+1, questions[i])
				if err := printEnvelope(out, env, false); err != nil {
					failed++
				}
				fmt.Fprintln(out)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d questions were not answered", failed, len(questions))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Questions file (- for stdin)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", bridge.DefaultBatchConcurrency, "Questions answered at once")

	return cmd
}

// readQuestions returns the non-blank, non-comment lines of r
func readQuestions(r io.Reader) ([]string, error) {
	var questions []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return questions, nil
}
