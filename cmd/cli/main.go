package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bridgehub/bridge/internal/app"
	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/intent"
	"github.com/bridgehub/bridge/internal/prompt"
	"github.com/bridgehub/bridge/pkg/model"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "bridge",
		Short:   "Bridge - cached, tiered question answering",
		Long:    `Bridge answers questions through canned replies, a semantic cache and two model tiers.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show pipeline logs")

	// Add subcommands
	cmd.AddCommand(askCmd())
	cmd.AddCommand(batchCmd())
	cmd.AddCommand(cacheCmd())
	cmd.AddCommand(classifyCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// queryFlags are the request options shared by ask and batch
type queryFlags struct {
	vibe       string
	length     string
	preference string
	confidence bool
	senderID   string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vibe, "vibe", "daily", "Vibe (academic, business, technical, daily, creative)")
	cmd.Flags().StringVarP(&f.length, "length", "l", "medium", "Answer length (short, medium, detailed)")
	cmd.Flags().StringVar(&f.preference, "preference", "", "Response preference (CoT, informative)")
	cmd.Flags().BoolVar(&f.confidence, "confidence", false, "Show the model's confidence")
	cmd.Flags().StringVar(&f.senderID, "sender", "cli", "Sender id")
}

// query builds a validated request for one question
func (f *queryFlags) query(question string) (model.QueryRequest, error) {
	vibe, err := model.ParseVibe(f.vibe)
	if err != nil {
		return model.QueryRequest{}, err
	}
	length, err := model.ParseAnswerLength(f.length)
	if err != nil {
		return model.QueryRequest{}, err
	}

	q := model.QueryRequest{
		Prompt:             strings.TrimSpace(question),
		Vibe:               vibe,
		AnswerLength:       length,
		SenderID:           f.senderID,
		WantConfidence:     f.confidence,
		ResponsePreference: f.preference,
	}
	if err := model.ValidateQuery(q); err != nil {
		return model.QueryRequest{}, err
	}
	return q, nil
}

func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return app.New(ctx, cfg)
}

func askCmd() *cobra.Command {
	var (
		flags      queryFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question",
		Long: `Runs one question through the full pipeline.

Examples:
  bridge ask "What is the capital of Peru?"
  bridge ask --vibe academic --length detailed "Explain quantum entanglement"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query(strings.Join(args, " "))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			env := a.Pipeline.Process(ctx, q)
			return printEnvelope(cmd.OutOrStdout(), env, jsonOutput)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the full response envelope as JSON")

	return cmd
}

func classifyCmd() *cobra.Command {
	var (
		vibe       string
		preference string
	)

	cmd := &cobra.Command{
		Use:   "classify <question>",
		Short: "Show how a question would be routed, without calling a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := model.ParseVibe(vibe)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			in := intent.NewClassifier().Classify(text)
			fmt.Fprintf(out, "Intent:           %s\n", in.Kind)
			if in.Expression != "" {
				fmt.Fprintf(out, "Expression:       %s\n", in.Expression)
			}
			if in.ShortCircuit() {
				fmt.Fprintln(out, "Route:            answered without a model")
				return nil
			}

			info := prompt.NewAnalyzer().Details(text, v)
			fmt.Fprintf(out, "Informativeness:  %.2f\n", info.Score)
			for _, f := range info.FollowUps {
				fmt.Fprintf(out, "  follow-up: %s\n", f)
			}

			c := prompt.Classify(text, v, preference)
			fmt.Fprintf(out, "Complexity:       %s (%s)\n", c.Complexity, c.Reason)
			if len(c.StrongMarkers) > 0 {
				fmt.Fprintf(out, "Markers:          %s\n", strings.Join(c.StrongMarkers, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vibe, "vibe", "daily", "Vibe (academic, business, technical, daily, creative)")
	cmd.Flags().StringVar(&preference, "preference", "", "Response preference (CoT, informative)")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bridge %s\n", version)
		},
	}
}

func printEnvelope(w io.Writer, env model.ResponseEnvelope, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}

	fmt.Fprintln(w, env.Text)
	for _, q := range env.FollowUpQuestions {
		fmt.Fprintf(w, "  • %s\n", q)
	}

	m := env.Metadata
	source := m.ModelUsed
	if m.FromCache {
		source = fmt.Sprintf("%s, %s cache hit", source, m.CacheMatchType)
	}
	if m.Escalated {
		source += ", escalated"
	}
	fmt.Fprintf(w, "\n[%s]", source)
	if m.Confidence != nil {
		fmt.Fprintf(w, " confidence %.2f", *m.Confidence)
	}
	fmt.Fprintln(w)

	if !env.Success {
		return fmt.Errorf("question was not answered")
	}
	return nil
}
