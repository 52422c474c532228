package main

import (
	"strings"

	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/Zuo-Peng/dialogue-chunker/internal/search"
	"github.com/Zuo-Peng/dialogue-chunker/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	var namespace string
	var limit int

	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Browse indexed chunks in a TUI",
		Long:  `Opens a TUI listing every indexed chunk. Type to filter by entry text. Enter copies the chunk file path to the clipboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openLedger("")
			if err != nil {
				return err
			}
			defer db.Close()

			index.IndexAll(db, cfg.OutputDir)

			return tui.Run(db, search.Options{
				Query:     strings.Join(args, " "),
				Namespace: namespace,
				Limit:     limit,
			})
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only show this namespace (name or path)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
