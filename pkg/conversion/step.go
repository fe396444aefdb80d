package conversion

import (
	"context"
	"errors"
	"sync"
	"time"

	"llamaconv/pkg/model"
	"llamaconv/pkg/shell"
)

const maxRecordedLines = 1000

var (
	ErrStepAlreadyStarted = errors.New("conversion step has already been started")
)

type StepType string

const (
	StepCheckEnvironment    StepType = "checkEnvironment"
	StepInstallDependencies StepType = "installDependencies"
	StepCheckDependencies   StepType = "checkDependencies"
	StepConvertModel        StepType = "convertModel"
	StepQuantizeModel       StepType = "quantizeModel"
)

type StepState int

const (
	StepNotStarted StepState = iota
	StepSkipped
	StepRunning
	StepFinished
)

func (s StepState) String() string {
	switch s {
	case StepSkipped:
		return "skipped"
	case StepRunning:
		return "running"
	case StepFinished:
		return "finished"
	default:
		return "not_started"
	}
}

type OutputKind int

const (
	OutputCommand OutputKind = iota
	OutputStdout
	OutputStderr
)

func (k OutputKind) String() string {
	switch k {
	case OutputCommand:
		return "command"
	case OutputStderr:
		return "stderr"
	default:
		return "stdout"
	}
}

type OutputLine struct {
	Kind OutputKind `json:"kind"`
	Text string     `json:"text"`
}

// ExecutionFunc runs a step. The returned output is passed as input to the next step and is only
// meaningful with a successful status.
type ExecutionFunc func(ctx context.Context, input any, connectors shell.Connectors) (shell.Status, any, error)

// CleanUpFunc removes whatever a successful step left behind, it receives the step output.
type CleanUpFunc func(output any) error

type Step struct {
	Type StepType

	execute  ExecutionFunc
	cleanUp  CleanUpFunc
	onChange func(Event)

	mu       sync.Mutex
	state    StepState
	status   shell.Status
	err      error
	output   any
	duration time.Duration
	lines    []OutputLine
}

// StepSnapshot is a copy of a step's progress that is safe to hand to other goroutines.
type StepSnapshot struct {
	Type     StepType
	State    StepState
	Status   shell.Status
	Err      error
	Duration time.Duration
	Output   []OutputLine
}

func NewStep(stepType StepType, execute ExecutionFunc, cleanUp CleanUpFunc) *Step {
	return &Step{Type: stepType, execute: execute, cleanUp: cleanUp}
}

func (s *Step) State() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Step) Execute(ctx context.Context, input any) (shell.Status, any, error) {
	s.mu.Lock()
	if s.state != StepNotStarted {
		s.mu.Unlock()
		return shell.Status{}, nil, ErrStepAlreadyStarted
	}
	s.state = StepRunning
	s.mu.Unlock()
	s.notify(nil)

	start := time.Now()
	status, output, err := s.execute(ctx, input, s.connectors())
	if err != nil {
		s.sendOutput(OutputStderr, err.Error())
	}

	s.mu.Lock()
	s.state = StepFinished
	s.status = status
	s.err = err
	s.duration = time.Since(start)
	if err == nil && status.IsSuccess() {
		s.output = output
	}
	s.mu.Unlock()
	s.notify(nil)

	return status, output, err
}

// Skip marks a step that never started as skipped, it has no effect otherwise.
func (s *Step) Skip() {
	s.mu.Lock()
	if s.state != StepNotStarted {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.sendOutput(OutputStdout, "Skipped step")

	s.mu.Lock()
	s.state = StepSkipped
	s.mu.Unlock()
	s.notify(nil)
}

// CleanUp undoes a step that finished successfully.
func (s *Step) CleanUp() error {
	s.mu.Lock()
	finished := s.state == StepFinished && s.err == nil && s.status.IsSuccess()
	output := s.output
	s.mu.Unlock()

	if !finished || s.cleanUp == nil {
		return nil
	}
	return s.cleanUp(output)
}

func (s *Step) Snapshot() StepSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StepSnapshot{
		Type:     s.Type,
		State:    s.state,
		Status:   s.status,
		Err:      s.err,
		Duration: s.duration,
		Output:   append([]OutputLine(nil), s.lines...),
	}
}

func (s StepSnapshot) Stats() model.StepStats {
	return model.StepStats{
		Step:     string(s.Type),
		State:    s.State.String(),
		Duration: s.Duration,
		ExitCode: s.Status.ExitCode,
	}
}

func (s *Step) connectors() shell.Connectors {
	return shell.Connectors{
		Command: func(line string) { s.sendOutput(OutputCommand, line) },
		Stdout:  func(line string) { s.sendOutput(OutputStdout, line) },
		Stderr:  func(line string) { s.sendOutput(OutputStderr, line) },
	}
}

func (s *Step) sendOutput(kind OutputKind, text string) {
	if kind == OutputCommand {
		text = "> " + text
	}
	line := OutputLine{Kind: kind, Text: text}

	s.mu.Lock()
	s.lines = append(s.lines, line)
	if len(s.lines) > maxRecordedLines {
		s.lines = s.lines[len(s.lines)-maxRecordedLines:]
	}
	s.mu.Unlock()

	s.notify(&line)
}

func (s *Step) notify(line *OutputLine) {
	if s.onChange == nil {
		return
	}
	s.onChange(Event{Step: s.Type, State: s.State(), Line: line})
}
