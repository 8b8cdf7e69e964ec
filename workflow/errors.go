package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind int

const (
	KindUnknown Kind = iota
	PermissionDenied
	MissingTarget
	IncompleteInstall
	IncompleteUninstall
	DownloadFailure
)

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case MissingTarget:
		return "missing target"
	case IncompleteInstall:
		return "incomplete install"
	case IncompleteUninstall:
		return "incomplete uninstall"
	case DownloadFailure:
		return "download failure"
	default:
		return "unknown"
	}
}

// fatal kinds stop the remaining steps of a workflow.
func (k Kind) fatal() bool {
	switch k {
	case PermissionDenied, IncompleteInstall, IncompleteUninstall:
		return false
	default:
		return true
	}
}

// Error is the error type returned by workflow steps and post-checks.
type Error struct {
	Kind Kind
	Op   string // step or check that failed
	Path string // file or directory involved, if any
	Err  error
}

// Sentinels usable with errors.Is to test for a kind.
var (
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
	ErrMissingTarget       = &Error{Kind: MissingTarget}
	ErrIncompleteInstall   = &Error{Kind: IncompleteInstall}
	ErrIncompleteUninstall = &Error{Kind: IncompleteUninstall}
	ErrDownloadFailure     = &Error{Kind: DownloadFailure}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind that carries no details, so the
// sentinels above match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Err == nil
}

// KindOf returns the kind of err, KindUnknown when it is not a workflow error.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func errorf(kind Kind, op, path, format string, args ...any) *Error {
	return newError(kind, op, path, fmt.Errorf(format, args...))
}
