package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind classifies pipeline failures into the buckets the UI boundary understands.
type Kind string

const (
	KindTransient          Kind = "transient_service"
	KindUnreadableDocument Kind = "unreadable_document"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindSchemaValidation   Kind = "schema_validation"
	KindMediaDegraded      Kind = "media_synthesis_degraded"
	KindDocumentRequired   Kind = "document_required"
)

var userMessages = map[Kind]string{
	KindTransient:          "The content service is temporarily unavailable. Please try again.",
	KindUnreadableDocument: "The document could not be read. It may be encrypted, corrupted or empty. Please upload a different file.",
	KindPayloadTooLarge:    "The document is too large to process. Please use a smaller file.",
	KindSchemaValidation:   "The content service returned an unexpected response. Please try again later.",
	KindMediaDegraded:      "Some media could not be generated.",
	KindDocumentRequired:   "Please upload the same document again to continue this course.",
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage maps err to a message fit for display. Errors outside the taxonomy
// fall back to the transient message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := userMessages[KindOf(err)]; ok {
		return msg
	}
	return userMessages[KindTransient]
}
