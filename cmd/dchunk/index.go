package main

import (
	"fmt"

	"github.com/Zuo-Peng/dialogue-chunker/internal/config"
	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/spf13/cobra"
)

// openLedger loads the config and opens the ledger database, applying an
// --output-dir override when given.
func openLedger(outputDir string) (*config.Config, *index.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, db, nil
}

func indexCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Record every run under the output root in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openLedger(outputDir)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Scanning %s...\n", cfg.OutputDir)

			stats, err := index.IndexAll(db, cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output root to index (default from config)")

	return cmd
}
