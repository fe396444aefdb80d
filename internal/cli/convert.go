package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"llamaconv/internal/logging"
	"llamaconv/pkg/config"
	"llamaconv/pkg/conversion"
)

var stepDescriptions = map[conversion.StepType]string{
	conversion.StepCheckEnvironment:    "Checking python environment ",
	conversion.StepInstallDependencies: "Installing python dependencies ",
	conversion.StepCheckDependencies:   "Checking python dependencies ",
	conversion.StepConvertModel:        "Converting model to ggml ",
	conversion.StepQuantizeModel:       "Quantizing model ",
}

type convertOpts struct {
	dir                string
	modelType          string
	script             string
	cleanIntermediates bool
}

func ConvertCommand(g *globalOpts) *cobra.Command {
	opts := convertOpts{}

	command := &cobra.Command{
		Use:     "convert",
		Short:   "Convert a PyTorch model directory into a quantized ggml model",
		Example: "llamaconv convert --dir ./models/7B --model-type 7B",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ConvertModel(cmd.Context(), cmd.OutOrStdout(), g.conf, opts)
		},
	}

	command.Flags().StringVar(&opts.dir, "dir", "", "Directory with params.json, tokenizer.model and the consolidated.*.pth checkpoints")
	command.Flags().StringVar(&opts.modelType, "model-type", conversion.AutoModelType, "Model size: 7B, 13B, 30B, 65B or auto to infer it from the checkpoints")
	command.Flags().StringVar(&opts.script, "script", "", "Python conversion script to run instead of the built-in dummy converter")
	command.Flags().BoolVar(&opts.cleanIntermediates, "clean-intermediates", true, "Remove the unquantized model once the conversion finished")
	MarkFlagsRequired(command, "dir")

	return command
}

func ConvertModel(ctx context.Context, out io.Writer, conf *config.Conf, opts convertOpts) error {
	data, err := conversion.ResolveData(opts.dir, opts.modelType)
	if err != nil {
		return err
	}

	validated, _, err := conversion.Validate(data)
	if err != nil {
		return err
	}

	convOpts := conversion.OptionsFromConf(conf, executable())
	if opts.script != "" {
		convOpts.ConverterScript = opts.script
	}
	pipeline := conversion.NewPyTorchToGgml(validated, convOpts)
	return runConversion(ctx, out, pipeline, validated, opts.cleanIntermediates)
}

func runConversion(ctx context.Context, out io.Writer, pipeline *conversion.Pipeline, validated conversion.ValidatedData, cleanIntermediates bool) error {
	logger := &logging.Logger{Logger: logging.BuildLogger().With("directory", validated.Data().Directory, "model_type", validated.Data().ModelType.String())}

	s := NewSpinner()
	s.Writer = out
	// stdout and stderr lines arrive from separate goroutines
	var outMu sync.Mutex
	pipeline.Observe(func(event conversion.Event) {
		if event.Line != nil {
			logger.Debug("Conversion output", "step", event.Step, "stream", event.Line.Kind.String(), "line", event.Line.Text)
			outMu.Lock()
			s.Stop()
			fmt.Fprintln(out, event.Line.Text)
			s.Start()
			outMu.Unlock()
			return
		}
		if event.State == conversion.StepRunning {
			s.Lock()
			s.Prefix = stepDescriptions[event.Step]
			s.Unlock()
		}
	})

	s.Start()
	result, err := pipeline.Run(ctx, validated)
	outMu.Lock()
	s.Stop()
	outMu.Unlock()

	writeStepStats(out, pipeline.Stats())
	if err != nil {
		logger.WithError(err).Error("Conversion failed")
		return err
	}

	res := result.(conversion.Result)
	logger.Info("Conversion finished", "output_file", res.OutputFile)
	fmt.Fprintf(out, "Converted model written to %s\n", res.OutputFile)

	if cleanIntermediates {
		if err := pipeline.CleanUp(); err != nil {
			return fmt.Errorf("removing intermediate files: %w", err)
		}
	}
	return nil
}
