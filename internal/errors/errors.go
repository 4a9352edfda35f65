package errors

import "fmt"

// ErrorCode represents a triagekit error code.
type ErrorCode string

const (
	ErrConfiguration     ErrorCode = "CONFIGURATION"      // fatal, raised before any I/O
	ErrInvalidCoordinate ErrorCode = "INVALID_COORDINATE" // unparseable package identity
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrArchiveCorrupt    ErrorCode = "ARCHIVE_CORRUPT"    // per-object, recoverable
	ErrDecode            ErrorCode = "DECODE_ERROR"       // per-object, recoverable
	ErrImporter          ErrorCode = "IMPORTER_ERROR"     // per-object, recoverable
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// TriageError represents a structured error with code, status, and details.
type TriageError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TriageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfiguration creates a fatal configuration error.
func NewConfiguration(msg string) *TriageError {
	return &TriageError{
		Code:    ErrConfiguration,
		Status:  500,
		Message: msg,
	}
}

// NewInvalidCoordinate creates an error for an unparseable package identity string.
func NewInvalidCoordinate(identity string) *TriageError {
	return &TriageError{
		Code:    ErrInvalidCoordinate,
		Status:  400,
		Message: fmt.Sprintf("invalid package coordinate: %q", identity),
		Details: map[string]any{"identity": identity},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TriageError {
	return &TriageError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing finding or run.
func NewNotFound(identifier string) *TriageError {
	return &TriageError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewArchiveCorrupt creates a per-object error for an unreadable archive.
func NewArchiveCorrupt(path string, err error) *TriageError {
	return &TriageError{
		Code:    ErrArchiveCorrupt,
		Status:  422,
		Message: fmt.Sprintf("cannot open archive %s: %v", path, err),
		Details: map[string]any{"path": path},
	}
}

// NewDecode creates a per-object error for a result file that is not valid JSON.
func NewDecode(path string, err error) *TriageError {
	return &TriageError{
		Code:    ErrDecode,
		Status:  422,
		Message: fmt.Sprintf("cannot decode %s: %v", path, err),
		Details: map[string]any{"path": path},
	}
}

// NewImporter wraps a failure reported by the finding importer.
func NewImporter(path string, err error) *TriageError {
	return &TriageError{
		Code:    ErrImporter,
		Status:  422,
		Message: fmt.Sprintf("importer rejected %s: %v", path, err),
		Details: map[string]any{"path": path},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TriageError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TriageError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TriageError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TriageError); ok {
		return tErr.Code == code
	}
	return false
}
