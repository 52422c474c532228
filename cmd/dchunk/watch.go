package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Zuo-Peng/dialogue-chunker/internal/watch"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var flags splitFlags

	cmd := &cobra.Command{
		Use:   "watch <input>",
		Short: "Re-split an input every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			w, err := watch.New(input, watch.DefaultDebounce, newLogger(cmd.ErrOrStderr(), flags.verbose))
			if err != nil {
				return err
			}
			defer w.Close()

			resplit := func() error { return runSplit(cmd, input, flags) }
			if err := resplit(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl-C to stop)\n", input)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return w.Run(ctx, resplit)
		},
	}
	flags.bind(cmd)

	return cmd
}
