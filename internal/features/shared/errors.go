package shared

import (
	"github.com/cockroachdb/errors"
)

// UserError carries a message that is safe to show to the person who issued
// the command. The wrapped cause is only logged.
type UserError struct {
	Message string
	Err     error
}

func NewUserError(message string, cause error) *UserError {
	return &UserError{Message: message, Err: cause}
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// UserMessage returns the user-facing text of err, or fallback when err does
// not carry one.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}
