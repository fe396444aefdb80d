package test

import (
	"context"
	"os"
	"strings"
	"sync"

	"llamaconv/pkg/placeholder"
	"llamaconv/pkg/shell"
)

// FakeRunner answers commands from a table keyed by command prefix and records what ran.
type FakeRunner struct {
	mu        sync.Mutex
	commands  []shell.Command
	responses map[string][]shell.Status
	// Errs makes commands with a matching prefix fail to run.
	Errs map[string]error
	// WritePlaceholder makes converter invocations write the placeholder into their last argument.
	WritePlaceholder bool
	// Block makes commands with this prefix wait for cancellation.
	Block string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses:        map[string][]shell.Status{},
		Errs:             map[string]error{},
		WritePlaceholder: true,
	}
}

// Respond queues statuses for commands starting with prefix, the last one repeats.
func (f *FakeRunner) Respond(prefix string, statuses ...shell.Status) {
	f.responses[prefix] = statuses
}

func (f *FakeRunner) Run(ctx context.Context, command shell.Command, connectors shell.Connectors) (shell.Status, error) {
	if ctx.Err() != nil {
		return shell.Cancelled, nil
	}
	connectors.SendCommand(command.String())

	line := command.String()
	f.mu.Lock()
	f.commands = append(f.commands, command)
	status := shell.Success
	var err error
	for prefix, statuses := range f.responses {
		if strings.HasPrefix(line, prefix) && len(statuses) > 0 {
			status = statuses[0]
			if len(statuses) > 1 {
				f.responses[prefix] = statuses[1:]
			}
		}
	}
	for prefix, prefixErr := range f.Errs {
		if strings.HasPrefix(line, prefix) {
			err = prefixErr
		}
	}
	block := f.Block != "" && strings.HasPrefix(line, f.Block)
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return shell.Cancelled, nil
	}
	if err != nil {
		return shell.Status{}, err
	}

	if status.IsSuccess() && f.WritePlaceholder && IsConverter(command) {
		dir := command.Args[len(command.Args)-1]
		if err := os.WriteFile(placeholder.Path(dir), placeholder.Content, 0644); err != nil {
			return shell.Status{}, err
		}
	}
	connectors.SendStdout("ok")
	return status, nil
}

func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.commands))
	for _, command := range f.commands {
		lines = append(lines, command.String())
	}
	return lines
}

// IsConverter reports whether command runs the dummy converter or a converter script.
func IsConverter(command shell.Command) bool {
	if len(command.Args) > 0 && command.Args[0] == "dummy" {
		return true
	}
	return len(command.Args) > 1 && strings.HasSuffix(command.Args[1], ".py")
}
