package models

import (
	"errors"
	"fmt"
)

// Local validation failures. These are detected before any remote call.
var (
	ErrInvalidVariable     = errors.New("invalid variable")
	ErrIncompleteSelection = errors.New("select a dependent variable")
	ErrEmptyIndependentSet = errors.New("select at least one independent variable")
	ErrInvalidFormat       = errors.New("invalid report format")
	ErrEmptyObservationSet = errors.New("analysis result has no observations")
	ErrUnsupportedFile     = errors.New("please upload a CSV or Excel file")
)

// Controller state failures.
var (
	ErrBusy       = errors.New("another request is still in progress")
	ErrNoSession  = errors.New("no data has been uploaded")
	ErrWrongState = errors.New("action not available in the current state")
)

// Remote failure kinds, matched by RemoteError.Is.
var (
	ErrUpload   = errors.New("file upload failed")
	ErrAnalysis = errors.New("data analysis failed")
	ErrReport   = errors.New("report generation failed")
)

// RemoteOp names the external call that failed.
type RemoteOp string

const (
	OpUpload  RemoteOp = "upload"
	OpAnalyze RemoteOp = "analyze"
	OpReport  RemoteOp = "report"
)

func (op RemoteOp) kind() error {
	switch op {
	case OpUpload:
		return ErrUpload
	case OpAnalyze:
		return ErrAnalysis
	case OpReport:
		return ErrReport
	default:
		return nil
	}
}

// RemoteError is a failure reported by the analysis service. Message is
// shown to the user verbatim.
type RemoteError struct {
	Op      RemoteOp
	Status  int
	Message string
	Err     error
}

// NewRemoteError builds a RemoteError, falling back to the operation's
// default message when the service gave none.
func NewRemoteError(op RemoteOp, status int, message string, err error) *RemoteError {
	if message == "" {
		if k := op.kind(); k != nil {
			message = k.Error()
		} else {
			message = fmt.Sprintf("%s failed", op)
		}
	}
	return &RemoteError{Op: op, Status: status, Message: message, Err: err}
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == e.Op.kind()
}

// IsValidation reports whether err is a local pre-flight failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidVariable, ErrIncompleteSelection, ErrEmptyIndependentSet,
		ErrInvalidFormat, ErrEmptyObservationSet, ErrUnsupportedFile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
