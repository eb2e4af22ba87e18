package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvelens/cvelens/internal/config"
	"github.com/cvelens/cvelens/internal/loader"
	"github.com/cvelens/cvelens/model"
)

func newFetchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the records and print them",
		Long: `Fetch loads the identifier file, resolves every identifier against the
configured vulnerability database and prints the records as a table or,
with --json, in the canonical JSON shape. Skipped identifiers go to
stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runFetch(cmd, cfg, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}

func runFetch(cmd *cobra.Command, cfg config.Config, asJSON bool) error {
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

	set, err := f.FetchAll(ctx, ids)
	if err != nil {
		return err
	}

	for _, skip := range set.Skipped {
		if skip.Reason == model.SkipNotFound {
			fmt.Fprintf(cmd.ErrOrStderr(), "identifier %s not found in the database, skipping\n", skip.ID)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "identifier %s failed: %s\n", skip.ID, skip.Detail)
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(set.Records)
	}

	return writeTable(cmd.OutOrStdout(), set.Records)
}

func writeTable(out io.Writer, records []model.Record) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEVERITY\tSCORE\tPRODUCT\tSUMMARY")

	for _, rec := range records {
		score := "-"
		if rec.Vulnerability.Severity.BaseScore != nil {
			score = strconv.FormatFloat(*rec.Vulnerability.Severity.BaseScore, 'f', -1, 64)
		}
		summary := rec.Vulnerability.Title
		if summary == "" {
			summary = rec.Vulnerability.Description
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Metadata.ID,
			rec.Vulnerability.Severity.Level,
			score,
			rec.Affected.Product,
			truncate(summary, 72),
		)
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
