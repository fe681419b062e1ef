package errors

import (
	"sync"
)

// ErrorCollector gathers errors that were reported without aborting a run:
// dropped modules and best-effort steps that failed.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// AddError adds an error to the collector; nil is ignored
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetAllErrors returns a copy of the collected errors in insertion order
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Count returns the number of collected errors
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}

// GetErrorsByFile returns the structured errors recorded for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []*DirtError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []*DirtError
	for _, err := range ec.errors {
		if de, ok := AsDirtError(err); ok && de.FilePath == file {
			fileErrors = append(fileErrors, de)
		}
	}
	return fileErrors
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}
