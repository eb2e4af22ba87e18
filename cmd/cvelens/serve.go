package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvelens/cvelens/internal/api"
	"github.com/cvelens/cvelens/internal/config"
	"github.com/cvelens/cvelens/internal/loader"
	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/internal/suggest"
)

var flagPort string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Fetch the records and serve them over HTTP",
		Long: `Serve loads the identifier file, resolves every identifier against the
configured vulnerability database and serves the records over the web
UI, the REST API and GraphQL until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flagPort != "" {
				cfg.Port = flagPort
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVarP(&flagPort, "port", "p", "", "port to listen on")
	return cmd
}

func runServe(cfg config.Config) error {
	ids, err := loader.Load(cfg.InputPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	logger.Sugar().Infof("Resolving %d identifiers against the %s database", len(ids), cfg.Source)
	set, err := f.FetchAll(ctx, ids)
	if err != nil {
		return err
	}

	st := store.New()
	if err := st.Publish(set); err != nil {
		return err
	}

	svc := suggest.NewService(suggest.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIURL))
	app := api.NewApp(api.Deps{Store: st, Suggest: svc})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Sugar().Info("Shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
