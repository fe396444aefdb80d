// Command dummy is the standalone placeholder converter: it takes a model directory, waits and
// writes ggml-model-1.bin containing a single space. It exists to debug the conversion flow
// without the tensor and tokenizer libraries a real conversion needs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llamaconv/pkg/placeholder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, placeholder.DefaultDelay)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, delay time.Duration) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: dummy <model-dir>")
		return 1
	}

	if _, err := placeholder.NewWriter(delay, stdout).Write(ctx, args[0]); err != nil {
		fmt.Fprintf(stderr, "Error writing placeholder model: %v\n", err)
		return 1
	}
	return 0
}
