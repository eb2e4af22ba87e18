package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cvelens/cvelens/internal/config"
	"github.com/cvelens/cvelens/internal/fetcher"
	"github.com/cvelens/cvelens/internal/logging"
	"github.com/cvelens/cvelens/internal/source"
)

var logger = logging.InitLogger()

var exit = os.Exit

var (
	cfgFile     string
	flagInput   string
	flagSource  string
	flagWorkers int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cvelens",
	Short: "Fetch, inspect and serve vulnerability records",
	Long: `cvelens reads a list of CVE identifiers from a text file, resolves each
one against the public vulnerability databases and presents the
normalized records on the terminal, over a REST and GraphQL API and in
an embedded web UI.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagInput, "input", "i", "", "text file with one CVE identifier per line")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "vulnerability database to query (chain, cve, nvd, osv)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "number of parallel lookups")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig loads the optional .env file before any command runs.
func initConfig() {
	_ = godotenv.Load()
}

// loadConfig resolves the configuration and layers the command line flags
// on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}

	if flagInput != "" {
		cfg.InputPath = flagInput
	}
	if flagSource != "" {
		cfg.Source = flagSource
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newFetcher builds the batch fetcher for the configured source.
func newFetcher(cfg config.Config) (*fetcher.Fetcher, error) {
	policy := source.DefaultPolicy()
	policy.Timeout = cfg.Timeout()
	policy.MaxAttempts = cfg.MaxAttempts

	client, err := source.ForName(cfg.Source, policy, cfg.NVDAPIKey)
	if err != nil {
		return nil, err
	}
	return fetcher.New(client, cfg.Workers), nil
}
