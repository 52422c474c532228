package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/config"
	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/Zuo-Peng/dialogue-chunker/internal/scan"
	"github.com/Zuo-Peng/dialogue-chunker/internal/split"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type splitFlags struct {
	chunkSize int
	outputDir string
	noStream  bool
	noLedger  bool
	quiet     bool
	verbose   bool
}

func (f *splitFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "Target characters per chunk (default from config, 25000)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Output root (default from config, \"chunks\")")
	cmd.Flags().BoolVar(&f.noStream, "no-stream", false, "Fail instead of streaming inputs over the memory limit")
	cmd.Flags().BoolVar(&f.noLedger, "no-ledger", false, "Do not record the run in the ledger")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log debug events to stderr")
}

// options resolves the run options from config and flags.
func (f splitFlags) options(cmd *cobra.Command, cfg *config.Config) split.Options {
	opts := split.Options{
		Budget:      cfg.ChunkSize,
		OutputRoot:  cfg.OutputDir,
		MemoryLimit: cfg.MemoryLimit(),
		Streaming:   cfg.Streaming && !f.noStream,
		Logger:      newLogger(cmd.ErrOrStderr(), f.verbose),
	}
	if cmd.Flags().Changed("chunk-size") {
		opts.Budget = f.chunkSize
	}
	if f.outputDir != "" {
		opts.OutputRoot = f.outputDir
	}
	return opts
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runSplit(cmd *cobra.Command, input string, flags splitFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts := flags.options(cmd, cfg)
	rep := newReporter(cmd.ErrOrStderr(), flags.quiet)

	var db *index.DB
	if cfg.Ledger && !flags.noLedger {
		db, err = index.OpenDB(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARN: ledger disabled: %v\n", err)
		} else {
			defer db.Close()
		}
	}

	info, err := os.Stat(input)
	if err != nil || !info.IsDir() {
		return splitOne(cmd, input, opts, rep, db)
	}

	files, err := scan.ScanInputs(input, opts.OutputRoot)
	if err != nil {
		return fmt.Errorf("scan %s: %w", input, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no dialogue logs found under %s", input)
	}

	failed := 0
	for _, f := range files {
		if err := splitOne(cmd, f.Path, opts, rep, db); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(files))
	}
	return nil
}

func splitOne(cmd *cobra.Command, input string, opts split.Options, rep *reporter, db *index.DB) error {
	rep.printf("Chunking %s into ~%s character chunks...\n", input, humanize.Comma(int64(opts.Budget)))
	opts.OnChunk = func(c chunk.Chunk, _ string) {
		rep.printf("Saved chunk %d: %d entries\n", c.Number, len(c.Entries))
	}

	stats, err := split.Run(input, opts)
	if err != nil {
		return fmt.Errorf("error during chunking: %w", err)
	}
	rep.summary(stats)

	if db != nil {
		if err := index.IndexRun(db, stats); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARN: record run: %v\n", err)
		}
	}
	return nil
}

var (
	styleDone  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// reporter prints progress and the run summary, styled when w is a terminal.
type reporter struct {
	w      io.Writer
	quiet  bool
	styled bool
}

func newReporter(w io.Writer, quiet bool) *reporter {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &reporter{w: w, quiet: quiet, styled: styled}
}

func (r *reporter) printf(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, format, args...)
}

func (r *reporter) summary(s chunk.Stats) {
	if r.quiet {
		return
	}
	title, label := "Chunking completed successfully!", func(s string) string { return s }
	if r.styled {
		title = styleDone.Render(title)
		label = func(s string) string { return styleLabel.Render(s) }
	}

	fmt.Fprintf(r.w, "\n%s\n", title)
	fmt.Fprintf(r.w, "%s %s\n", label("Total entries:"), humanize.Comma(int64(s.TotalEntries)))
	fmt.Fprintf(r.w, "%s %s\n", label("Total characters:"), humanize.Comma(int64(s.TotalCharacters)))
	fmt.Fprintf(r.w, "%s %d\n", label("Number of chunks:"), s.ChunkCount)
	fmt.Fprintf(r.w, "%s %s characters\n", label("Average chunk size:"), humanize.Comma(int64(math.Round(s.AverageChunkSize))))
	fmt.Fprintf(r.w, "%s %s\n", label("Output directory:"), s.OutputDirectory)
}
