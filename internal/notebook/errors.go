package notebook

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped by MalformedError when a required JSON field is absent.
var ErrMissingField = errors.New("missing required field")

// MalformedError reports a structural problem in a notebook document.
type MalformedError struct {
	Path string // JSON path, e.g. "cells[3].outputs[0].ename"
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed notebook: %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func missing(path string) error {
	return &MalformedError{Path: path, Err: ErrMissingField}
}

// prefixPath nests a MalformedError path under prefix. Other errors are wrapped.
func prefixPath(prefix string, err error) error {
	var me *MalformedError
	if errors.As(err, &me) {
		return &MalformedError{Path: prefix + "." + me.Path, Err: me.Err}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
