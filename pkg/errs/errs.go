package errs

import "fmt"

// Error is a domain error with a stable machine-readable code.
// Two errors match under errors.Is when their codes are equal, so a
// detailed instance matches its package-level sentinel.
type Error struct {
	Code    string
	Message string
}

func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
