package shell

import "fmt"

type StatusKind int

const (
	StatusSuccess StatusKind = iota
	StatusFailure
	StatusCancelled
)

// Status is the outcome of a command that could be executed. A failed Status still means the
// command ran, errors are reserved for commands that could not be run at all.
type Status struct {
	Kind     StatusKind
	ExitCode int32
	// Detail holds the tail of stderr for failures.
	Detail string
}

var (
	Success   = Status{Kind: StatusSuccess}
	Cancelled = Status{Kind: StatusCancelled, ExitCode: -1}
)

func Failure(exitCode int32) Status {
	return Status{Kind: StatusFailure, ExitCode: exitCode}
}

func FailureWithDetail(exitCode int32, detail string) Status {
	return Status{Kind: StatusFailure, ExitCode: exitCode, Detail: detail}
}

func (s Status) IsSuccess() bool {
	return s.Kind == StatusSuccess
}

func (s Status) IsCancelled() bool {
	return s.Kind == StatusCancelled
}

func (s Status) String() string {
	switch s.Kind {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("failure (exit %d)", s.ExitCode)
	}
}
