// Package placeholder writes the stand-in ggml model file produced by the dummy converter.
package placeholder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/raulk/clock"
)

const (
	// FileName is what the converter produces inside the model directory.
	FileName = "ggml-model-1.bin"

	DefaultDelay = 5 * time.Second
)

// Content is the whole placeholder file: a single ASCII space.
var Content = []byte{0x20}

type Writer struct {
	Delay time.Duration
	Clock clock.Clock
	Out   io.Writer
}

func NewWriter(delay time.Duration, out io.Writer) *Writer {
	return &Writer{
		Delay: delay,
		Clock: clock.New(),
		Out:   out,
	}
}

// Path returns where Write puts the placeholder for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write announces itself, waits for the configured delay and then writes the placeholder into dir,
// replacing any previous one. The directory is not checked up front, file system errors are returned as is.
func (w *Writer) Write(ctx context.Context, dir string) (string, error) {
	out := w.Out
	if out == nil {
		out = io.Discard
	}
	clk := w.Clock
	if clk == nil {
		clk = clock.New()
	}

	fmt.Fprintln(out, "Starting")
	fmt.Fprintf(out, "input: %s\n", dir)
	fmt.Fprintln(out, "writing file...")

	if w.Delay > 0 {
		timer := clk.Timer(w.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	outputPath := Path(dir)
	if err := os.WriteFile(outputPath, Content, 0644); err != nil {
		return "", err
	}
	return outputPath, nil
}
