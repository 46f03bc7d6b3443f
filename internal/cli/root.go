package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apresai/convoconnect/internal/config"
	"github.com/apresai/convoconnect/internal/observability"
	"github.com/apresai/convoconnect/internal/script"
	"github.com/apresai/convoconnect/internal/workflow"
)

var Version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "convoconnect",
	Short: "Practice the speaker-listener technique with AI-generated conversation scripts",
	Long: `Conversation Connect helps couples practice the speaker-listener technique.
Pick a discussion topic, generate a two-round practice script, walk through it
together, and email it to your partner.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "convoconnect %s\n", Version)
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the built-in discussion topics",
	Run: func(cmd *cobra.Command, args []string) {
		for i, t := range workflow.Topics {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, t)
		}
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the instruction sent to the model for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagTopic == "" {
			return fmt.Errorf("--topic (-p) is required")
		}
		fmt.Fprint(cmd.OutOrStdout(), script.BuildPrompt(flagTopic))
		return nil
	},
}

var (
	flagTopic  string
	flagRandom bool
	flagEmail  string
	flagOpen   bool
	flagRaw    bool
	flagWidth  int
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(generateCmd)

	promptCmd.Flags().StringVarP(&flagTopic, "topic", "p", "", "Discussion topic")

	generateCmd.Flags().StringVarP(&flagTopic, "topic", "p", "", "Discussion topic")
	generateCmd.Flags().BoolVarP(&flagRandom, "random", "r", false, "Pick a random topic from the built-in list")
	generateCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Partner email; prints a mailto link for the script")
	generateCmd.Flags().BoolVar(&flagOpen, "open", false, "Open the mailto link in the default mail client (requires --email)")
	generateCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the script exactly as the model returned it")
	generateCmd.Flags().IntVarP(&flagWidth, "width", "w", 80, "Layout width for the rendered transcript")
}

// Execute loads configuration, binds flags and runs the selected command.
func Execute() error {
	cfg = config.Load()
	cfg.BindFlags(rootCmd.PersistentFlags())
	return rootCmd.Execute()
}

// setupLogging installs the default slog logger. The interactive screen
// owns the terminal, so it only logs when --log-file is set.
func setupLogging(interactive bool) (func(), error) {
	if !interactive {
		slog.SetDefault(observability.InitLogger(cfg.Verbose))
		return func() {}, nil
	}
	if cfg.LogFile == "" {
		slog.SetDefault(observability.NewLogger(io.Discard, cfg.Verbose))
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(observability.NewLogger(f, cfg.Verbose))
	return func() { f.Close() }, nil
}

// startTracing installs a tracer provider and returns its shutdown func.
func startTracing(ctx context.Context) func() {
	tp, err := observability.InitTracer(ctx, "convoconnect", Version)
	if err != nil {
		slog.Warn("Failed to init tracer, continuing without tracing", "error", err)
		return func() {}
	}
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("Tracer shutdown error", "error", err)
		}
	}
}
