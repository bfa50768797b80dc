package httperr

import "errors"

// BadRequestError marks a store or service failure the handlers should
// surface as 400 rather than 500, e.g. a lock override with an empty
// scope id or an unknown timesheet entry on delete.
type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}
