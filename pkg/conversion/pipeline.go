package conversion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"llamaconv/pkg/model"
	"llamaconv/pkg/shell"
)

var (
	ErrPipelineAlreadyStarted = errors.New("conversion pipeline has already been started")
)

type PipelineState int

const (
	PipelineNotRunning PipelineState = iota
	PipelineRunning
	PipelineFailed
	PipelineFinished
	PipelineCancelled
)

func (s PipelineState) String() string {
	switch s {
	case PipelineRunning:
		return "running"
	case PipelineFailed:
		return "failed"
	case PipelineFinished:
		return "finished"
	case PipelineCancelled:
		return "cancelled"
	default:
		return "not_running"
	}
}

func (s PipelineState) IsRunning() bool {
	return s == PipelineRunning
}

// Event is sent to observers whenever a step changes state or produces a line of output.
type Event struct {
	Step  StepType
	State StepState
	// Line is set for output events only.
	Line *OutputLine
}

// StepFailedError reports a step whose command ran but did not succeed.
type StepFailedError struct {
	Step   StepType
	Status shell.Status
}

func (e *StepFailedError) Error() string {
	if e.Status.Detail != "" {
		return fmt.Sprintf("step %s: %s: %s", e.Step, e.Status, e.Status.Detail)
	}
	return fmt.Sprintf("step %s: %s", e.Step, e.Status)
}

// Pipeline runs its steps in order, feeding each step the output of the previous one. The first
// step that fails, errors or is cancelled stops the run and every later step is skipped.
type Pipeline struct {
	steps     []*Step
	observers []func(Event)

	mu       sync.Mutex
	state    PipelineState
	result   any
	err      error
	started  time.Time
	finished time.Time
}

func NewPipeline(steps ...*Step) *Pipeline {
	p := &Pipeline{steps: steps}
	for _, step := range steps {
		step.onChange = p.publish
	}
	return p
}

// Observe registers fn for step events. Observers must be registered before Run and are called
// from the goroutines producing output, so they need to be safe for concurrent use.
func (p *Pipeline) Observe(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

func (p *Pipeline) CanStart() bool {
	return p.State() == PipelineNotRunning
}

func (p *Pipeline) Run(ctx context.Context, input any) (any, error) {
	p.mu.Lock()
	if p.state != PipelineNotRunning {
		p.mu.Unlock()
		return nil, ErrPipelineAlreadyStarted
	}
	p.state = PipelineRunning
	p.started = time.Now()
	p.mu.Unlock()

	current := input
	for i, step := range p.steps {
		status, output, err := step.Execute(ctx, current)
		switch {
		case err != nil:
			p.skipFrom(i + 1)
			if ctx.Err() != nil {
				return nil, p.finish(PipelineCancelled, nil, ctx.Err())
			}
			return nil, p.finish(PipelineFailed, nil, fmt.Errorf("step %s: %w", step.Type, err))
		case status.IsCancelled():
			p.skipFrom(i + 1)
			cancelErr := ctx.Err()
			if cancelErr == nil {
				cancelErr = context.Canceled
			}
			return nil, p.finish(PipelineCancelled, nil, cancelErr)
		case !status.IsSuccess():
			p.skipFrom(i + 1)
			return nil, p.finish(PipelineFailed, nil, &StepFailedError{Step: step.Type, Status: status})
		}
		current = output
	}

	return current, p.finish(PipelineFinished, current, nil)
}

func (p *Pipeline) skipFrom(index int) {
	for _, step := range p.steps[index:] {
		step.Skip()
	}
}

func (p *Pipeline) finish(state PipelineState, result any, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.result = result
	p.err = err
	p.finished = time.Now()
	return err
}

func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result is the output of the last step once the pipeline finished.
func (p *Pipeline) Result() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pipeline) Steps() []StepSnapshot {
	snapshots := make([]StepSnapshot, 0, len(p.steps))
	for _, step := range p.steps {
		snapshots = append(snapshots, step.Snapshot())
	}
	return snapshots
}

// CurrentStep is the step that is running, if any.
func (p *Pipeline) CurrentStep() (StepType, bool) {
	for _, step := range p.steps {
		if step.State() == StepRunning {
			return step.Type, true
		}
	}
	return "", false
}

func (p *Pipeline) Stats() model.ConversionStats {
	stats := model.ConversionStats{}
	for _, snapshot := range p.Steps() {
		stats.Steps = append(stats.Steps, snapshot.Stats())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.started.IsZero():
	case p.finished.IsZero():
		stats.Total = time.Since(p.started)
	default:
		stats.Total = p.finished.Sub(p.started)
	}
	return stats
}

// CleanUp removes the intermediate artifacts of finished steps, last step first.
func (p *Pipeline) CleanUp() error {
	if p.State().IsRunning() {
		return errors.New("cannot clean up a running conversion pipeline")
	}

	var errs []error
	for i := len(p.steps) - 1; i >= 0; i-- {
		if err := p.steps[i].CleanUp(); err != nil {
			errs = append(errs, fmt.Errorf("clean up %s: %w", p.steps[i].Type, err))
		}
	}
	return multierr.Combine(errs...)
}

func (p *Pipeline) publish(event Event) {
	p.mu.Lock()
	observers := make([]func(Event), len(p.observers))
	copy(observers, p.observers)
	p.mu.Unlock()

	for _, observer := range observers {
		observer(event)
	}
}
