package common

import (
	"errors"
	"fmt"
)

// ErrorKind splits failures by how the caller must react: transient errors
// are retried with backoff, systematic errors surface to an operator
// unretried, critical errors halt processing of the ticket and alert.
type ErrorKind int

const (
	KindSystematic ErrorKind = iota
	KindTransient
	KindCritical
)

type kindError struct {
	kind ErrorKind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func Transient(format string, a ...interface{}) error {
	return &kindError{kind: KindTransient, err: fmt.Errorf(format, a...)}
}

func Systematic(format string, a ...interface{}) error {
	return &kindError{kind: KindSystematic, err: fmt.Errorf(format, a...)}
}

func Critical(format string, a ...interface{}) error {
	return &kindError{kind: KindCritical, err: fmt.Errorf(format, a...)}
}

// KindOf classifies an error chain. Unannotated errors default to
// systematic: not retried, surfaced with context.
func KindOf(err error) ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindSystematic
}
