package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Process exit statuses of the logs binaries.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// ErrInvalidConfig marks errors caused by bad environment or flag values.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Exit ends the process for a command's terminal error. Nothing happens when
// err is nil; help requests exit quietly.
func Exit(program string, err error) {
	if err == nil {
		return
	}
	code := ExitCode(err)
	if code != ExitOK {
		report(os.Stderr, program, err)
	}
	os.Exit(code)
}

func report(w io.Writer, program string, err error) {
	fmt.Fprintf(w, "%s: %v\n", program, err)
}
