package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apresai/convoconnect/internal/progress"
	"github.com/apresai/convoconnect/internal/script"
	"github.com/apresai/convoconnect/internal/transcript"
	"github.com/apresai/convoconnect/internal/workflow"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a practice script without the interactive screen",
	Example: `  convoconnect generate --random
  convoconnect generate -p "How we split holiday visits" --email partner@example.com --open`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if flagTopic == "" && !flagRandom {
		return fmt.Errorf("either --topic (-p) or --random (-r) is required")
	}
	if flagOpen && flagEmail == "" {
		return fmt.Errorf("--open requires --email")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	defer startTracing(ctx)()

	gen, err := script.NewGenerator(ctx, cfg.ScriptOptions())
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	ctrl := workflow.NewController(nil, gen)

	onProgress := progress.NopCallback
	if !cfg.Verbose {
		r := progress.NewBarRenderer(os.Stderr)
		defer r.Finish()
		onProgress = r.Handle
	}
	start := time.Now()

	topic, err := ctrl.RequestTopic()
	if err != nil {
		return err
	}
	if flagTopic != "" {
		topic = flagTopic
		if err := ctrl.EditTopic(topic); err != nil {
			return err
		}
	}
	onProgress(progress.NewEvent(progress.StageTopic, "Topic: "+topic, 0.1, start))

	ev := progress.NewEvent(progress.StageGenerate, "Generating practice script with "+cfg.Model, 0.3, start)
	ev.Model = cfg.Model
	onProgress(ev)

	text, err := ctrl.Generate(ctx)
	if err != nil {
		ev.Error = err
		onProgress(ev)
		return err
	}

	view := transcript.New()
	view.SetScript(text)
	out := cmd.OutOrStdout()
	if flagRaw {
		fmt.Fprintln(out, text)
	} else {
		fmt.Fprintln(out, view.Render(flagWidth))
	}

	if flagEmail != "" {
		onProgress(progress.NewEvent(progress.StageShare, "Building share link", 0.9, start))
		if err := ctrl.SetPartnerEmail(flagEmail); err != nil {
			return err
		}
		link, err := ctrl.Mailto(cfg.ShareURL)
		if errors.Is(err, workflow.ErrNoPartnerEmail) {
			return fmt.Errorf("--email is blank")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSend to partner: %s\n", link)
		if flagOpen {
			if err := openURL(link); err != nil {
				return fmt.Errorf("open mail client: %w", err)
			}
		}
	}

	done := progress.NewEvent(progress.StageComplete, "Practice script ready", 1, start)
	done.Turns = len(view.Transcript().Turns())
	onProgress(done)
	return nil
}
