package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var errMissingInput = errors.New("missing input file or directory (see 'dchunk --help')")

func newRootCmd() *cobra.Command {
	var flags splitFlags

	rootCmd := &cobra.Command{
		Use:   "dchunk <input|dir>",
		Short: "Split dialogue log JSON into size-bounded chunk files",
		Long: `Split a JSON array (or JSONL) of dialogue entries into chunk files of
roughly --chunk-size serialized characters each, plus chunking_stats.json.
Outputs go to <output-dir>/<input stem>/. A directory argument splits every
supported input below it.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errMissingInput
			}
			return runSplit(cmd, args[0], flags)
		},
	}
	flags.bind(rootCmd)

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
