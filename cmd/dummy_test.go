package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llamaconv/pkg/placeholder"
)

func TestRunWithoutArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), nil, &stdout, &stderr, 0)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Usage: dummy <model-dir>\n", stderr.String())
	assert.Empty(t, stdout.String())
}

func TestRunWritesPlaceholder(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{dir}, &stdout, &stderr, 0)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Starting\ninput: "+dir+"\nwriting file...\n", stdout.String())

	content, err := os.ReadFile(filepath.Join(dir, placeholder.FileName))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x20}, content)
}

func TestRunMissingDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr, 0)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error writing placeholder model")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run(ctx, []string{dir}, &stdout, &stderr, time.Hour)
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, filepath.Join(dir, placeholder.FileName))
}
