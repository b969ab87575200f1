package goapkerr

import "errors"

// ExitCodeError attaches a process exit code to an error so that the
// entrypoint can report stage-specific statuses without inspecting
// error types itself.
func ExitCodeError(err error, exitCode int) error {
	if err == nil {
		return nil
	}

	if exitCode <= 0 || exitCode > 255 {
		exitCode = 1
	}

	return &exitCodeError{
		err:      err,
		exitCode: exitCode,
	}
}

type exitCodeError struct {
	err      error
	exitCode int
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return ""
	}

	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	ecerr := &exitCodeError{}
	if errors.As(err, &ecerr) {
		return ecerr.exitCode
	}

	return 1
}
