package model

import "fmt"

// Error codes written to the errors keyspace.
const (
	ErrCodeParse       = "PARSE_ERROR"
	ErrCodeUnsupported = "UNSUPPORTED_DOCUMENT"
	ErrCodeIngest      = "INGEST_ERROR"
	ErrCodeDuplicate   = "DUPLICATE"
)

// UnsupportedDocumentError means the XML carried no recognizable
// Invoice/CreditNote/DebitNote root. Fatal to that one file only.
type UnsupportedDocumentError struct {
	RootKeys []string
}

func (e *UnsupportedDocumentError) Error() string {
	if len(e.RootKeys) == 0 {
		return "unsupported UBL document: empty or non-XML input (expected Invoice, CreditNote or DebitNote)"
	}
	return fmt.Sprintf("unsupported UBL document: no Invoice/CreditNote/DebitNote root among %v", e.RootKeys)
}

// NewUnsupportedDocumentError creates an UnsupportedDocumentError listing
// the top-level keys that were actually found.
func NewUnsupportedDocumentError(rootKeys []string) *UnsupportedDocumentError {
	return &UnsupportedDocumentError{RootKeys: rootKeys}
}

// ParseError represents a parse/map failure with file and field context.
type ParseError struct {
	File    string
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.File, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.File, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error.
func NewParseError(file, field, message string, cause error) *ParseError {
	return &ParseError{
		File:    file,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// IngestError means mapping succeeded but the resolver could not persist
// the document. It is recorded per item, never aborts the batch.
type IngestError struct {
	Filename string
	Code     string
	Detail   string
	Cause    error
}

func (e *IngestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest %s [%s]: %s (%v)", e.Filename, e.Code, e.Detail, e.Cause)
	}
	return fmt.Sprintf("ingest %s [%s]: %s", e.Filename, e.Code, e.Detail)
}

func (e *IngestError) Unwrap() error {
	return e.Cause
}

// NewIngestError creates a new ingest error.
func NewIngestError(filename, code, detail string, cause error) *IngestError {
	return &IngestError{
		Filename: filename,
		Code:     code,
		Detail:   detail,
		Cause:    cause,
	}
}
