package imports

import "fmt"

// ErrorKind categorizes a fatal import failure so callers can branch on
// the failure class instead of pattern-matching message text.
type ErrorKind string

const (
	ErrKindSheetParse  ErrorKind = "sheet_parse"
	ErrKindSchema      ErrorKind = "schema_validation"
	ErrKindData        ErrorKind = "data_validation"
	ErrKindPersistence ErrorKind = "persistence"
)

// ImportError is a fatal pipeline error. Exactly one is produced per
// failed run; the orchestrator converts it into a failed job record and a
// structured failure result.
type ImportError struct {
	Kind    ErrorKind
	Message string
}

func (e *ImportError) Error() string {
	return e.Message
}

func importErrorf(kind ErrorKind, format string, args ...interface{}) *ImportError {
	return &ImportError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
