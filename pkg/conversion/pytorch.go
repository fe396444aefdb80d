package conversion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"

	"llamaconv/pkg/config"
	"llamaconv/pkg/placeholder"
	"llamaconv/pkg/shell"
)

// QuantizedFileName is written next to the converted model by the quantize step.
const QuantizedFileName = "ggml-model-q4_0-dummy.bin"

type Options struct {
	Python                 string
	Dependencies           []string
	InstallRetries         int
	InstallBackoff         time.Duration
	DependencyCheckWorkers int
	// ConverterScript is run with Python when set. Otherwise Executable is run with the dummy
	// command, which writes the placeholder model after PlaceholderDelay.
	ConverterScript  string
	Executable       string
	PlaceholderDelay time.Duration
	// TempDir is where per-run working directories are created, defaults to os.TempDir().
	TempDir string
	Runner  shell.Runner
}

func OptionsFromConf(cfg *config.Conf, executable string) Options {
	return Options{
		Python:                 cfg.Conversion.Python,
		Dependencies:           cfg.Conversion.Dependencies,
		InstallRetries:         cfg.Conversion.InstallRetries,
		InstallBackoff:         time.Duration(cfg.Conversion.InstallBackoff),
		DependencyCheckWorkers: cfg.Conversion.DependencyCheckWorkers,
		ConverterScript:        cfg.Conversion.ConverterScript,
		Executable:             executable,
		PlaceholderDelay:       time.Duration(cfg.Placeholder.Delay),
		Runner:                 shell.NewExecRunner(time.Duration(cfg.Conversion.CommandTimeout)),
	}
}

func (o *Options) populateUnset() {
	if o.Python == "" {
		o.Python = config.DefaultPython
	}
	if len(o.Dependencies) == 0 {
		o.Dependencies = config.DefaultDependencies
	}
	if o.InstallBackoff <= 0 {
		o.InstallBackoff = config.DefaultInstallBackoff
	}
	if o.DependencyCheckWorkers < 1 {
		o.DependencyCheckWorkers = config.DefaultDependencyCheckWorkers
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	if o.Runner == nil {
		o.Runner = shell.NewExecRunner(0)
	}
}

// Result is the final artifact of a PyTorch to ggml conversion.
type Result struct {
	OutputFile string `json:"output_file"`
}

func (r Result) CleanUp() error {
	return os.Remove(r.OutputFile)
}

type pytorchToGgml struct {
	data ValidatedData
	opts Options
}

// NewPyTorchToGgml builds the pipeline converting validated PyTorch weights into a quantized ggml
// model. Run it with the same ValidatedData; the final output is a Result.
func NewPyTorchToGgml(data ValidatedData, opts Options) *Pipeline {
	opts.populateUnset()
	c := &pytorchToGgml{data: data, opts: opts}
	return NewPipeline(
		NewStep(StepCheckEnvironment, c.checkEnvironment, nil),
		// installed packages are left alone on clean up, they may have been there before
		NewStep(StepInstallDependencies, c.installDependencies, nil),
		NewStep(StepCheckDependencies, c.checkDependencies, nil),
		NewStep(StepConvertModel, c.convertModel, removeConvertedModel),
		NewStep(StepQuantizeModel, c.quantizeModel, nil),
	)
}

func (c *pytorchToGgml) checkEnvironment(ctx context.Context, input any, connectors shell.Connectors) (shell.Status, any, error) {
	status, err := c.opts.Runner.Run(ctx, shell.NewCommand("which", c.opts.Python), connectors)
	return status, input, err
}

func (c *pytorchToGgml) installDependencies(ctx context.Context, input any, connectors shell.Connectors) (shell.Status, any, error) {
	command := shell.NewCommand(c.opts.Python, append([]string{"-u", "-m", "pip", "install"}, c.opts.Dependencies...)...)

	var status shell.Status
	operation := func() error {
		var err error
		status, err = c.opts.Runner.Run(ctx, command, connectors)
		if err != nil {
			return backoff.Permanent(err)
		}
		if status.Kind == shell.StatusFailure {
			return fmt.Errorf("pip install exited with %d", status.ExitCode)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InstallBackoff
	policy.MaxElapsedTime = 0
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.InstallRetries)), ctx)

	err := backoff.RetryNotify(operation, retries, func(err error, wait time.Duration) {
		connectors.SendStderr(fmt.Sprintf("%v, retrying in %s", err, wait.Round(time.Millisecond)))
	})
	switch {
	case ctx.Err() != nil:
		return shell.Cancelled, nil, nil
	case status.Kind == shell.StatusFailure:
		return status, nil, nil
	case err != nil:
		return shell.Status{}, nil, err
	}
	return status, input, nil
}

func (c *pytorchToGgml) checkDependencies(ctx context.Context, input any, connectors shell.Connectors) (shell.Status, any, error) {
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once      sync.Once
		failed    = shell.Success
		failedErr error
	)
	pool := workerpool.New(c.opts.DependencyCheckWorkers)
	for _, dependency := range c.opts.Dependencies {
		dependency := dependency
		pool.Submit(func() {
			if checkCtx.Err() != nil {
				return
			}
			status, err := c.opts.Runner.Run(checkCtx, shell.NewCommand(c.opts.Python, "-u", "-m", "pip", "show", dependency), connectors)
			if err != nil || !status.IsSuccess() {
				once.Do(func() {
					failed, failedErr = status, err
					cancel()
				})
			}
		})
	}
	pool.StopWait()

	switch {
	case ctx.Err() != nil:
		return shell.Cancelled, nil, nil
	case failedErr != nil:
		return shell.Status{}, nil, failedErr
	case !failed.IsSuccess():
		return failed, nil, nil
	}
	return shell.Success, input, nil
}

func (c *pytorchToGgml) convertModel(ctx context.Context, _ any, connectors shell.Connectors) (shell.Status, any, error) {
	dir := c.data.Data().Directory

	workDir := filepath.Join(c.opts.TempDir, "llamaconv-"+uuid.New().String())
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return shell.Status{}, nil, fmt.Errorf("create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	var command shell.Command
	if c.opts.ConverterScript != "" {
		script, err := filepath.Abs(c.opts.ConverterScript)
		if err != nil {
			return shell.Status{}, nil, err
		}
		command = shell.NewCommand(c.opts.Python, "-u", script, dir)
	} else {
		if c.opts.Executable == "" {
			return shell.Status{}, nil, errors.New("no converter script configured and no executable to run the dummy converter with")
		}
		command = shell.NewCommand(c.opts.Executable, "dummy", "--delay", c.opts.PlaceholderDelay.String(), dir)
	}
	command.Dir = workDir

	status, err := c.opts.Runner.Run(ctx, command, connectors)
	if err != nil || !status.IsSuccess() {
		return status, nil, err
	}

	convertedFile := placeholder.Path(dir)
	if info, err := os.Stat(convertedFile); err != nil || info.IsDir() {
		connectors.SendStderr(fmt.Sprintf("converter did not produce %s", convertedFile))
		return shell.Failure(1), nil, nil
	}
	return shell.Success, convertedFile, nil
}

func (c *pytorchToGgml) quantizeModel(_ context.Context, input any, connectors shell.Connectors) (shell.Status, any, error) {
	convertedFile, ok := input.(string)
	if !ok {
		return shell.Status{}, nil, fmt.Errorf("quantize expects the converted model path, got %T", input)
	}

	outputFile := filepath.Join(filepath.Dir(convertedFile), QuantizedFileName)
	if err := os.WriteFile(outputFile, placeholder.Content, 0644); err != nil {
		return shell.Status{}, nil, err
	}
	connectors.SendStdout(fmt.Sprintf("wrote %s", outputFile))
	return shell.Success, Result{OutputFile: outputFile}, nil
}

func removeConvertedModel(output any) error {
	convertedFile, ok := output.(string)
	if !ok {
		return nil
	}
	if err := os.Remove(convertedFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
