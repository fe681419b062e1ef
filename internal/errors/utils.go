package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a DirtError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *DirtError {
	if err == nil {
		return nil
	}

	// Keep the file and step of an inner DirtError so the outer message stays precise
	var de *DirtError
	if errors.As(err, &de) {
		return &DirtError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       de,
			Context:     de.Context,
			Step:        de.Step,
			FilePath:    de.FilePath,
			Recoverable: de.Recoverable,
		}
	}

	return &DirtError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeConfig,
	}
}

// WrapBuild wraps an error as a build error for the given step
func WrapBuild(err error, code, message, step string) *DirtError {
	de := Wrap(err, ErrorTypeBuild, code, message)
	if de != nil {
		de.Step = step
		de.Recoverable = false
	}
	return de
}

// WrapIO wraps an error as an I/O error on a specific file
func WrapIO(err error, code, message, filePath string) *DirtError {
	de := Wrap(err, ErrorTypeIO, code, message)
	if de != nil {
		de.FilePath = filePath
		de.Recoverable = false
	}
	return de
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *DirtError {
	de := Wrap(err, ErrorTypeConfig, code, message)
	if de != nil {
		de.Recoverable = true
	}
	return de
}

// AsDirtError returns err as a *DirtError when it is one.
func AsDirtError(err error) (*DirtError, bool) {
	var de *DirtError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
