package conversion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llamaconv/pkg/model"
	"llamaconv/pkg/placeholder"
	"llamaconv/pkg/shell"
	"llamaconv/test"
)

func newTestConversion(t *testing.T, runner *test.FakeRunner, configure ...func(*Options)) (*Pipeline, ValidatedData) {
	t.Helper()

	validated, _, err := Validate(Data{ModelType: model.ModelType7B, Directory: test.CreateModelDir(t, 1)})
	require.NoError(t, err)

	opts := Options{
		Python:           "python3",
		Dependencies:     []string{"numpy", "sentencepiece", "torch"},
		InstallRetries:   2,
		InstallBackoff:   time.Millisecond,
		Executable:       "/usr/local/bin/llamaconv",
		PlaceholderDelay: 0,
		TempDir:          t.TempDir(),
		Runner:           runner,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return NewPyTorchToGgml(validated, opts), validated
}

func TestPyTorchToGgmlConversion(t *testing.T) {
	runner := test.NewFakeRunner()
	p, validated := newTestConversion(t, runner)
	dir := validated.Data().Directory

	result, err := p.Run(context.Background(), validated)
	require.NoError(t, err)

	res, ok := result.(Result)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, QuantizedFileName), res.OutputFile)

	content, err := os.ReadFile(res.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, []byte(" "), content)

	lines := runner.CommandLines()
	require.Len(t, lines, 6)
	assert.Equal(t, "which python3", lines[0])
	assert.Equal(t, "python3 -u -m pip install numpy sentencepiece torch", lines[1])
	assert.ElementsMatch(t, []string{
		"python3 -u -m pip show numpy",
		"python3 -u -m pip show sentencepiece",
		"python3 -u -m pip show torch",
	}, lines[2:5])
	assert.Equal(t, "/usr/local/bin/llamaconv dummy --delay 0s "+dir, lines[5])

	var stepTypes []StepType
	for _, snapshot := range p.Steps() {
		stepTypes = append(stepTypes, snapshot.Type)
		assert.Equal(t, StepFinished, snapshot.State)
	}
	assert.Equal(t, []StepType{
		StepCheckEnvironment,
		StepInstallDependencies,
		StepCheckDependencies,
		StepConvertModel,
		StepQuantizeModel,
	}, stepTypes)

	require.NoError(t, p.CleanUp())
	_, err = os.Stat(placeholder.Path(dir))
	assert.True(t, os.IsNotExist(err), "unquantized model should be removed on clean up")
	_, err = os.Stat(res.OutputFile)
	require.NoError(t, err, "quantized model must survive clean up")

	require.NoError(t, res.CleanUp())
	_, err = os.Stat(res.OutputFile)
	assert.True(t, os.IsNotExist(err))
}

func TestPyTorchToGgmlWithScript(t *testing.T) {
	runner := test.NewFakeRunner()
	p, validated := newTestConversion(t, runner, func(o *Options) {
		o.ConverterScript = "/opt/llama/convert-pth-to-ggml.py"
		o.Dependencies = []string{"sentencepiece"}
	})

	_, err := p.Run(context.Background(), validated)
	require.NoError(t, err)

	lines := runner.CommandLines()
	assert.Equal(t, "python3 -u /opt/llama/convert-pth-to-ggml.py "+validated.Data().Directory, lines[len(lines)-1])
}

func TestPyTorchToGgmlMissingPython(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Respond("which", shell.Failure(1))
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)

	var stepErr *StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepCheckEnvironment, stepErr.Step)
	assert.Len(t, runner.CommandLines(), 1)
	for _, snapshot := range p.Steps()[1:] {
		assert.Equal(t, StepSkipped, snapshot.State)
	}
}

func TestPyTorchToGgmlRetriesInstall(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Respond("python3 -u -m pip install", shell.Failure(1), shell.Failure(1), shell.Success)
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)
	require.NoError(t, err)

	installs := 0
	for _, line := range runner.CommandLines() {
		if line == "python3 -u -m pip install numpy sentencepiece torch" {
			installs++
		}
	}
	assert.Equal(t, 3, installs)
}

func TestPyTorchToGgmlInstallGivesUp(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Respond("python3 -u -m pip install", shell.Failure(1))
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)

	var stepErr *StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepInstallDependencies, stepErr.Step)
	assert.Equal(t, int32(1), stepErr.Status.ExitCode)
	assert.Len(t, runner.CommandLines(), 4, "one check plus three install attempts")
}

func TestPyTorchToGgmlMissingDependency(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Respond("python3 -u -m pip show torch", shell.Failure(1))
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)

	var stepErr *StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepCheckDependencies, stepErr.Step)
	assert.Equal(t, StepSkipped, p.Steps()[3].State)
}

func TestPyTorchToGgmlConverterWroteNothing(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.WritePlaceholder = false
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)

	var stepErr *StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepConvertModel, stepErr.Step)

	output := p.Steps()[3].Output
	assert.Equal(t, OutputStderr, output[len(output)-1].Kind)
}

func TestPyTorchToGgmlCancelled(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Block = "/usr/local/bin/llamaconv dummy"
	p, validated := newTestConversion(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	p.Observe(func(event Event) {
		if event.Step == StepConvertModel && event.State == StepRunning && event.Line == nil {
			cancel()
		}
	})

	_, err := p.Run(ctx, validated)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PipelineCancelled, p.State())
	assert.Equal(t, StepSkipped, p.Steps()[4].State)
}

func TestPyTorchToGgmlRunnerError(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Errs["which"] = errors.New("exec: \"which\": executable file not found in $PATH")
	p, validated := newTestConversion(t, runner)

	_, err := p.Run(context.Background(), validated)
	require.Error(t, err)
	assert.Equal(t, PipelineFailed, p.State())
}

func TestOptionsPopulateUnset(t *testing.T) {
	opts := Options{}
	opts.populateUnset()
	assert.Equal(t, "python3", opts.Python)
	assert.NotEmpty(t, opts.Dependencies)
	assert.NotNil(t, opts.Runner)
	assert.Equal(t, os.TempDir(), opts.TempDir)
}
