package gridcalc

import "strings"

// ErrorCode classifies cell-level failures. Every code maps to a sentinel
// string that is returned in place of a value; dependents receive the
// sentinel unchanged.
type ErrorCode uint8

const (
	ErrorCodeParse  ErrorCode = 1  // #PARSE! - malformed formula text
	ErrorCodeRef    ErrorCode = 2  // #REF! - bad address or range too large
	ErrorCodeCycle  ErrorCode = 3  // #CYCLE! - address re-entered while in flight
	ErrorCodeDepth  ErrorCode = 4  // #DEPTH! - recursion depth guard tripped
	ErrorCodeLimit  ErrorCode = 5  // #LIMIT! - total evaluation guard tripped
	ErrorCodeName   ErrorCode = 6  // #NAME? - unrecognized function name
	ErrorCodeCipher ErrorCode = 7  // #CIPHER? - unknown dispatch operation
	ErrorCodeValue  ErrorCode = 8  // #VALUE! - wrong type of argument or operand
	ErrorCodeDiv0   ErrorCode = 9  // #DIV/0! - division by zero
	ErrorCodeOther  ErrorCode = 10 // #ERROR! - all other errors
)

// ErrorMapper maps error codes to their display sentinels
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeParse:  "#PARSE!",
	ErrorCodeRef:    "#REF!",
	ErrorCodeCycle:  "#CYCLE!",
	ErrorCodeDepth:  "#DEPTH!",
	ErrorCodeLimit:  "#LIMIT!",
	ErrorCodeName:   "#NAME?",
	ErrorCodeCipher: "#CIPHER?",
	ErrorCodeValue:  "#VALUE!",
	ErrorCodeDiv0:   "#DIV/0!",
	ErrorCodeOther:  "#ERROR!",
}

// CellError is a failure returned in place of a cell value. It preserves
// the code for display and a message for diagnostics.
type CellError struct {
	Code    ErrorCode
	Message string
}

func (e *CellError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Code]
}

// Sentinel returns the display string for the error, e.g. "#CYCLE!"
func (e *CellError) Sentinel() string {
	return ErrorMapper[e.Code]
}

// IsGuard reports whether the error was produced by a resource guard
// rather than ordinary computation.
func (e *CellError) IsGuard() bool {
	switch e.Code {
	case ErrorCodeCycle, ErrorCodeDepth, ErrorCodeLimit:
		return true
	}
	return false
}

func NewCellError(code ErrorCode, message string) *CellError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &CellError{
		Code:    code,
		Message: message,
	}
}

// IsErrorText reports whether a stored string must be read as an error
// value. Any leading-# string from evaluation is an error, never text.
func IsErrorText(s string) bool {
	return strings.HasPrefix(s, "#")
}

// errorFromText converts a leading-# string back into a typed error. Known
// sentinels keep their code; anything else becomes a generic error.
func errorFromText(s string) *CellError {
	for code, sentinel := range ErrorMapper {
		if s == sentinel {
			return NewCellError(code, "")
		}
	}
	return NewCellError(ErrorCodeOther, s)
}

// EngineErrorCode represents error codes for application-level errors, as
// opposed to formula errors held in cells.
type EngineErrorCode int

const (
	// InvalidArgument indicates the caller specified an invalid argument,
	// such as an unparseable address string.
	InvalidArgument EngineErrorCode = 3

	// AlreadyExists means an attempt to register an entity failed because
	// one is already registered under the same name.
	AlreadyExists EngineErrorCode = 6

	// OutOfRange means an operation was attempted past the valid range.
	OutOfRange EngineErrorCode = 11

	// Internal errors. Means some invariant expected by the underlying
	// system has been broken.
	Internal EngineErrorCode = 13
)

// EngineError represents errors at the API level (not cell errors)
type EngineError struct {
	Code    EngineErrorCode
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

func NewEngineError(code EngineErrorCode, message string) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
	}
}
