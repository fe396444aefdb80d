package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"llamaconv/pkg/placeholder"
)

func DummyCommand(g *globalOpts) *cobra.Command {
	var delay time.Duration

	command := &cobra.Command{
		Use:     "dummy <model-dir>",
		Short:   "Write a placeholder ggml-model-1.bin into the model directory, used to debug conversions",
		Example: "llamaconv dummy ./models/7B",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("delay") {
				delay = time.Duration(g.conf.Placeholder.Delay)
			}
			return WritePlaceholder(cmd.Context(), cmd.OutOrStdout(), args[0], delay)
		},
	}

	command.Flags().DurationVar(&delay, "delay", placeholder.DefaultDelay, "How long to wait before writing the file")
	return command
}

func WritePlaceholder(ctx context.Context, out io.Writer, dir string, delay time.Duration) error {
	_, err := placeholder.NewWriter(delay, out).Write(ctx, dir)
	return err
}
