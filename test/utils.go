package test

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func GenerateRandomBytes(numOfBytesToGenerate int) []byte {
	generatedBytes := make([]byte, numOfBytesToGenerate)
	_, err := rand.Read(generatedBytes)
	if err != nil {
		panic(err)
	}
	return generatedBytes
}

// CreateModelDir lays out a fake PyTorch checkpoint directory with the given number of shards.
func CreateModelDir(tb testing.TB, parts int) string {
	tb.Helper()

	dir := tb.TempDir()
	files := []string{"params.json", "tokenizer.model"}
	for part := 0; part < parts; part++ {
		files = append(files, fmt.Sprintf("consolidated.%02d.pth", part))
	}

	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file), GenerateRandomBytes(64), 0644); err != nil {
			tb.Fatalf("Error writing %s: %s", file, err)
		}
	}
	return dir
}
