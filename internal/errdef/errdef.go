package errdef

import (
	"errors"
	"fmt"
)

// Code classifies an error by the stage that produced it. Build errors
// happen before any network activity, HTTP errors during transport,
// decode errors when bytes are read as text.
type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeBuild      Code = "build"
	CodeHTTP       Code = "http"
	CodeDecode     Code = "decode"
	CodeParse      Code = "parse"
	CodeHistory    Code = "history"
	CodeFilesystem Code = "filesystem"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf walks the chain and returns the first classified code, or
// CodeUnknown if no *Error is present.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// Message returns a display string for err without the code prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
