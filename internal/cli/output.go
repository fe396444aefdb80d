package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"llamaconv/pkg/model"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type validationReport struct {
	Directory string               `json:"directory" yaml:"directory"`
	ModelType string               `json:"model_type" yaml:"model_type"`
	Files     []model.RequiredFile `json:"files" yaml:"files"`
	Missing   []string             `json:"missing" yaml:"missing"`
}

func writeValidationReport(out io.Writer, format string, report validationReport) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case outputYAML:
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(report)
	case outputTable, "":
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetTitle(fmt.Sprintf("%s (%s)", report.Directory, report.ModelType))
		t.AppendHeader(table.Row{"File", "Found", "Size"})
		for _, file := range report.Files {
			size := "-"
			if file.Found {
				size = humanize.Bytes(uint64(file.Size))
			}
			t.AppendRow(table.Row{filepath.Base(file.Path), file.Found, size})
		}
		t.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q, expected table, json or yaml", format)
	}
}

func writeStepStats(out io.Writer, stats model.ConversionStats) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Step", "State", "Duration", "Exit code"})
	for _, step := range stats.Steps {
		t.AppendRow(table.Row{step.Step, step.State, step.Duration.Round(time.Millisecond), step.ExitCode})
	}
	t.AppendFooter(table.Row{"", "Total", stats.Total.Round(time.Millisecond), ""})
	t.Render()
}
