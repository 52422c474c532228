package main

import (
	"github.com/Zuo-Peng/dialogue-chunker/internal/open"
	"github.com/spf13/cobra"
)

func openCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "open <namespace> <chunk>",
		Short: "Open a chunk file in $EDITOR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveChunk(args[0], args[1])
			if err != nil {
				return err
			}
			return open.OpenChunk(path, query)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Jump to the first line containing this text")

	return cmd
}
