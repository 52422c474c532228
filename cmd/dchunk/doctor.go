package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Zuo-Peng/dialogue-chunker/internal/config"
	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/Zuo-Peng/dialogue-chunker/internal/scan"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, output root, ledger and FTS5",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "=== Config ===")
			fmt.Fprintf(out, "  Path: %s", config.Path())
			if _, err := os.Stat(config.Path()); err != nil {
				fmt.Fprintln(out, " (not found, using defaults)")
			} else {
				fmt.Fprintln(out, " (OK)")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			fmt.Fprintf(out, "  Chunk size: %s\n", humanize.Comma(int64(cfg.ChunkSize)))
			fmt.Fprintf(out, "  Memory limit: %s (streaming %v)\n", humanize.IBytes(uint64(cfg.MemoryLimit())), cfg.Streaming)

			fmt.Fprintln(out, "\n=== Output Root ===")
			checkDir(out, "Output", cfg.OutputDir)
			if dirs, err := scan.Namespaces(cfg.OutputDir); err == nil {
				fmt.Fprintf(out, "  Namespaces: %d\n", len(dirs))
			}

			fmt.Fprintln(out, "\n=== Ledger ===")
			fmt.Fprintf(out, "  Path: %s\n", cfg.DBPath)
			if !cfg.Ledger {
				fmt.Fprintln(out, "  Status: DISABLED (ledger = false)")
			}
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "  Status: NOT FOUND (run 'dchunk index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			runCount, err := db.RunCount()
			if err != nil {
				return fmt.Errorf("count runs: %w", err)
			}
			chunkCount, err := db.ChunkCount()
			if err != nil {
				return fmt.Errorf("count chunks: %w", err)
			}
			entryCount, err := db.EntryCount()
			if err != nil {
				return fmt.Errorf("count entries: %w", err)
			}
			fmt.Fprintf(out, "  Runs:    %d\n", runCount)
			fmt.Fprintf(out, "  Chunks:  %d\n", chunkCount)
			fmt.Fprintf(out, "  Entries: %d\n", entryCount)

			fmt.Fprintln(out, "\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Fprintf(out, "  FTS5 error: %v\n", err)
			} else {
				fmt.Fprintf(out, "  FTS5 entries: %d\n", ftsCount)
				if ftsCount == entryCount {
					fmt.Fprintln(out, "  Status: OK (synced)")
				} else {
					fmt.Fprintf(out, "  Status: MISMATCH (entries=%d, fts=%d)\n", entryCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Fprintf(out, "\n=== DB Size: %s ===\n", humanize.IBytes(uint64(info.Size())))
			}

			return nil
		},
	}
}

func checkDir(out io.Writer, name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Fprintf(out, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Fprintf(out, "  %s: %s (OK)\n", name, path)
	}
}
