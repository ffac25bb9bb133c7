package main

import (
	"os"

	"github.com/stvp/rollbar"
)

// ErrorReporter forwards unexpected failures to an external crash service.
type ErrorReporter interface {
	ReportError(err error)
}

type noopReporter struct{}

func (noopReporter) ReportError(error) {}

type rollbarReporter struct{}

// newErrorReporter returns a Rollbar-backed reporter when a token is set and a
// no-op otherwise.
func newErrorReporter(token string) ErrorReporter {
	if token == "" {
		return noopReporter{}
	}

	switch env := os.Getenv("EWASTE_ENV"); env {
	case "":
		rollbar.Environment = "production"
	default:
		rollbar.Environment = env
	}
	rollbar.Token = token

	return rollbarReporter{}
}

// ReportError sends err and blocks until the queue is flushed.
func (rollbarReporter) ReportError(err error) {
	rollbar.Error(rollbar.ERR, err)
	rollbar.Wait()
}
