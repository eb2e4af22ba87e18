package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/cvelens/cvelens/internal/config"
	"github.com/cvelens/cvelens/internal/fetcher"
	"github.com/cvelens/cvelens/internal/suggest"
)

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <identifier>",
		Short: "Print remediation advice for one identifier",
		Long: `Suggest resolves a single identifier against the configured
vulnerability database and asks the AI model how to fix it. The answer
is rendered as markdown on the terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSuggest(cmd, cfg, args[0])
		},
	}
}

func runSuggest(cmd *cobra.Command, cfg config.Config, id string) error {
	if cfg.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	set, err := f.FetchAll(ctx, []string{id})
	if err != nil {
		var unresolved *fetcher.AllUnresolvedError
		if errors.As(err, &unresolved) {
			return fmt.Errorf("%s could not be resolved against the %s database", id, cfg.Source)
		}
		return err
	}

	svc := suggest.NewService(suggest.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIURL))
	advice, err := svc.For(ctx, &set.Records[0])
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), advice)
		return nil
	}

	rendered, err := renderer.Render(advice)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), advice)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
