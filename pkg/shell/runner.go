package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const stderrTailSize = 64 * 1024

type Command struct {
	Name string
	Args []string
	// Dir is the working directory, empty means the current one.
	Dir string
}

func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Connectors receive the command line before it runs and then each line of output. Any of them may be nil.
type Connectors struct {
	Command func(string)
	Stdout  func(string)
	Stderr  func(string)
}

func (c Connectors) SendCommand(line string) {
	if c.Command != nil {
		c.Command(line)
	}
}

func (c Connectors) SendStdout(line string) {
	if c.Stdout != nil {
		c.Stdout(line)
	}
}

func (c Connectors) SendStderr(line string) {
	if c.Stderr != nil {
		c.Stderr(line)
	}
}

type Runner interface {
	Run(ctx context.Context, command Command, connectors Connectors) (Status, error)
}

type ExecRunner struct {
	// Timeout bounds each command, zero means no limit. A command that times out reports a failure, not a cancellation.
	Timeout time.Duration
}

func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, command Command, connectors Connectors) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Cancelled, nil
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	connectors.SendCommand(command.String())

	cmd := exec.CommandContext(runCtx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	killProcessGroupOnCancel(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Status{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Status{}, err
	}

	if err := cmd.Start(); err != nil {
		return Status{}, fmt.Errorf("start %s: %w", command.Name, err)
	}

	// a grandchild still holding the pipes must not keep the readers blocked once the run is over
	stopClosing := context.AfterFunc(runCtx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stopClosing()

	tail := newRingBuffer(stderrTailSize)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		streamLines(stdout, connectors.SendStdout)
	}()
	go func() {
		defer wg.Done()
		streamLines(io.TeeReader(stderr, tail), connectors.SendStderr)
	}()
	wg.Wait()

	err = cmd.Wait()

	if ctx.Err() != nil {
		return Cancelled, nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		connectors.SendStderr(fmt.Sprintf("command timed out after %s", r.Timeout))
		return FailureWithDetail(-1, strings.TrimSpace(tail.String())), nil
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return FailureWithDetail(int32(ee.ExitCode()), strings.TrimSpace(tail.String())), nil
		}
		return Status{}, err
	}
	return Success, nil
}

func streamLines(reader io.Reader, send func(string)) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		send(scanner.Text())
	}
	// drain whatever is left so the child never blocks on a full pipe
	_, _ = io.Copy(io.Discard, reader)
}
