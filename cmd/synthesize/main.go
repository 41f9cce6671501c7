package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nestnav/forecaster/config"
	"nestnav/forecaster/internal/csvstore"
	"nestnav/forecaster/internal/storage"
	"nestnav/forecaster/internal/synth"
)

var (
	envFile string
	backend string
	seed    uint64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Generate synthetic price, plots and rentals history from area metadata",
		Long: `Reads the area metadata table and writes one row per area and month
for each history table. Without --seed every run produces different noise.`,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
	rootCmd.Flags().StringVar(&backend, "backend", "", "Override the storage backend (csv or sqlite)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if backend != "" {
		cfg.Data.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger := cfg.Log.NewLogger()

	// metadata always comes from the source CSV
	source := csvstore.New(storage.CSVPaths(cfg.Data), logger)
	table, err := source.LoadMetadata()
	if err != nil {
		return fmt.Errorf("failed to load area metadata: %w", err)
	}
	areas := table.All()

	store, err := storage.Open(cfg.Data, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if w, ok := store.(storage.MetadataWriter); ok {
		if err := w.WriteMetadata(areas); err != nil {
			return fmt.Errorf("failed to write area metadata: %w", err)
		}
		logger.WithField("areas", len(areas)).Info("Copied area metadata into store")
	}

	var s *synth.Synthesizer
	if cmd.Flags().Changed("seed") {
		s = synth.NewSynthesizer(store, synth.NewSeededRand(seed), logger)
	} else {
		s = synth.NewSynthesizer(store, nil, logger)
	}

	summary, err := s.Run(areas)
	if err != nil {
		return err
	}
	fields := logrus.Fields{"areas": summary.Areas}
	for metric, rows := range summary.Rows {
		fields[metric.String()+"_rows"] = rows
	}
	logger.WithFields(fields).Info("Synthetic history written")
	return nil
}
