package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/config"
	"github.com/Zuo-Peng/dialogue-chunker/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// resolveChunk maps a namespace (a directory path, or a name under the output
// root) and a chunk number to the chunk file path.
func resolveChunk(namespace, number string) (string, error) {
	n, err := strconv.Atoi(number)
	if err != nil || n < 1 {
		return "", fmt.Errorf("invalid chunk number %q", number)
	}

	dir := namespace
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		cfg, err := config.Load()
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		dir = filepath.Join(cfg.OutputDir, namespace)
	}

	path := chunk.Path(dir, n)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("chunk not found: %s", path)
	}
	return path, nil
}

func previewCmd() *cobra.Command {
	var hitEntry int
	var query string
	var plain bool

	cmd := &cobra.Command{
		Use:   "preview <namespace> <chunk>",
		Short: "Render the entries of one chunk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveChunk(args[0], args[1])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("plain") {
				plain = !term.IsTerminal(int(os.Stdout.Fd()))
			}
			out, _, err := render.RenderChunk(path, render.Options{
				HitEntry: hitEntry,
				Query:    query,
				Plain:    plain,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitEntry, "hit", -1, "Entry index to mark")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&plain, "plain", false, "No colors (default when stdout is not a terminal)")

	return cmd
}
