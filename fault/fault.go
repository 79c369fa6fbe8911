// Package fault defines the error kinds returned by the extraction pipeline.
//
// Every failure surfaced to callers is a *Error carrying one of the sentinel
// kinds below and the name of the stage that failed, so callers can branch with
// errors.Is and still print a stack trace with %+v.
package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfiguration reports a bad resolution or tuning parameter.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDecode reports an unreadable, truncated or unsupported buffer.
	ErrDecode = errors.New("decode error")
	// ErrEncoding reports an internal invariant violation found while
	// serializing a template. It indicates a defect upstream.
	ErrEncoding = errors.New("encoding error")
)

// Stage names used in errors.
const (
	StageConfig       = "config"
	StageDecode       = "decode"
	StageField        = "ridge-field"
	StageEnhance      = "enhance"
	StageDetect       = "detect"
	StageEncode       = "encode"
	StageTemplate     = "template"
	StageTransparency = "transparency"
)

// Error is a pipeline failure of a given kind at a given stage.
type Error struct {
	Kind  error
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error kind, so errors.Is(err, ErrDecode) holds for every
// decode failure regardless of its cause.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Format prints the cause's stack trace with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.Err != nil {
			fmt.Fprintf(s, "%s: %v: %+v", e.Stage, e.Kind, e.Err)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New wraps err (which may be nil) into a pipeline error and records the
// stack at the call site.
func New(kind error, stage string, err error) error {
	if err == nil {
		return &Error{Kind: kind, Stage: stage}
	}
	return &Error{Kind: kind, Stage: stage, Err: errors.WithStack(err)}
}

// Newf is New with a formatted cause.
func Newf(kind error, stage, format string, args ...interface{}) error {
	return &Error{Kind: kind, Stage: stage, Err: errors.Errorf(format, args...)}
}

// Invalid is shorthand for a configuration failure.
func Invalid(stage, format string, args ...interface{}) error {
	return Newf(ErrInvalidConfiguration, stage, format, args...)
}

// StageOf returns the stage recorded in err, or "" when err is not a
// pipeline error.
func StageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}
