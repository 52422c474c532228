package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/Zuo-Peng/dialogue-chunker/internal/search"
	"github.com/Zuo-Peng/dialogue-chunker/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func oneLine(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}

func searchCmd() *cobra.Command {
	var namespace string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across chunk entries",
		Long: `Search the entries of indexed chunks using FTS5 (substring match for CJK
queries). Output is TSV for fzf integration:
  namespace, chunk, session, entry, input, snippet

Recommended shell function:
  dchunkf() {
    dchunk search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'dchunk preview {1} {2} --hit {4} --query {q}' \
      --preview-window=right:60%:wrap \
      --bind 'enter:execute(dchunk open {1} {2} --query {q})'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openLedger("")
			if err != nil {
				return err
			}
			defer db.Close()

			// pick up runs made with --no-ledger or by hand
			index.IndexAll(db, cfg.OutputDir)

			opts := search.Options{
				Query:     args[0],
				Namespace: namespace,
				Limit:     limit,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, opts)
			}

			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No results found.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				// first two fields stay plain for fzf {1} {2}
				fmt.Fprintf(out, "%s\t%d\t%s%s%s\t%d\t%s%s%s\t%s\n",
					r.Namespace,
					r.ChunkNumber,
					sColorBlue, r.SessionID, sColorReset,
					r.EntryIndex,
					sColorGreen, filepath.Base(r.InputFile), sColorReset,
					colorizeSnippet(oneLine(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only search this namespace (name or path)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
