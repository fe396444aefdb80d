package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"llamaconv/pkg/conversion"
)

type validateOpts struct {
	dir       string
	modelType string
	output    string
}

func ValidateCommand(_ *globalOpts) *cobra.Command {
	opts := validateOpts{}

	command := &cobra.Command{
		Use:     "validate",
		Short:   "Check that a directory holds every file needed to convert a PyTorch model",
		Example: "llamaconv validate --dir ./models/13B --model-type 13B --output json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ValidateModelDir(cmd.OutOrStdout(), opts)
		},
	}

	command.Flags().StringVar(&opts.dir, "dir", "", "Directory with params.json, tokenizer.model and the consolidated.*.pth checkpoints")
	command.Flags().StringVar(&opts.modelType, "model-type", conversion.AutoModelType, "Model size: 7B, 13B, 30B, 65B or auto to infer it from the checkpoints")
	command.Flags().StringVar(&opts.output, "output", outputTable, "Output format: table, json or yaml")
	MarkFlagsRequired(command, "dir")

	return command
}

// ValidateModelDir prints the state of every required file. It returns the validation error, if
// any, after the report has been written.
func ValidateModelDir(out io.Writer, opts validateOpts) error {
	data, err := conversion.ResolveData(opts.dir, opts.modelType)
	if err != nil {
		return err
	}

	_, files, validationErr := conversion.Validate(data)
	var missingErr *conversion.MissingFilesError
	if validationErr != nil && !errors.As(validationErr, &missingErr) {
		return validationErr
	}

	report := validationReport{
		Directory: data.Directory,
		ModelType: data.ModelType.String(),
		Files:     files,
		Missing:   []string{},
	}
	if missingErr != nil {
		report.Missing = missingErr.Filenames
	}

	if err := writeValidationReport(out, opts.output, report); err != nil {
		return err
	}
	return validationErr
}
