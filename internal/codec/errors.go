package codec

import (
	"fmt"
	"strings"
)

// ErrorKind identifies the specific way an exchange payload failed to
// decode. Every kind maps to a user-displayable reason; decoding never
// fails with a generic error.
type ErrorKind int

const (
	KindMissingPrefix ErrorKind = iota + 1
	KindDecompressionFailed
	KindMalformedJSON
	KindUnknownType
	KindSchemaValidation
	KindEmptyOrOversizedItem
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingPrefix:
		return "missing prefix"
	case KindDecompressionFailed:
		return "decompression failed"
	case KindMalformedJSON:
		return "malformed json"
	case KindUnknownType:
		return "unknown payload type"
	case KindSchemaValidation:
		return "schema validation failed"
	case KindEmptyOrOversizedItem:
		return "empty or oversized item"
	default:
		return "unknown error"
	}
}

// DecodeError is the tagged failure result of decoding untrusted
// payload text. Fields carries the specific fields that failed
// validation when Kind is KindSchemaValidation.
type DecodeError struct {
	Kind   ErrorKind
	Detail string
	Fields []string
}

func (e *DecodeError) Error() string {
	msg := "codec: " + e.Kind.String()
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any DecodeError of the same kind, so callers can write
// errors.Is(err, codec.ErrMissingPrefix).
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Sentinel values for errors.Is checks.
var (
	ErrMissingPrefix        = &DecodeError{Kind: KindMissingPrefix}
	ErrDecompressionFailed  = &DecodeError{Kind: KindDecompressionFailed}
	ErrMalformedJSON        = &DecodeError{Kind: KindMalformedJSON}
	ErrUnknownType          = &DecodeError{Kind: KindUnknownType}
	ErrSchemaValidation     = &DecodeError{Kind: KindSchemaValidation}
	ErrEmptyOrOversizedItem = &DecodeError{Kind: KindEmptyOrOversizedItem}
)

func decodeErrorf(kind ErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
