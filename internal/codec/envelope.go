package codec

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Wire format constants. The prefix identifies the payload format
// before any decompression is attempted, so scanners that emit
// unrelated codes are rejected cheaply.
const (
	PayloadPrefix = "LB1:"
	AppTag        = "LernBox"
	Version       = 1

	TypeCard      = "card"
	TypeCardBatch = "card_batch"
)

// Hard caps on decoded input. Items beyond MaxItems are truncated
// silently; a sanitized field longer than MaxHTMLLen rejects that
// item, not the whole batch.
const (
	MaxItems   = 50
	MaxHTMLLen = 5000
)

// Meta carries optional envelope metadata.
type Meta struct {
	CreatedAt string `json:"createdAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Count     int    `json:"count,omitempty" validate:"omitempty,gt=0"`
}

// CardPayload is the single-card envelope form.
type CardPayload struct {
	App          string `json:"app" validate:"required,eq=LernBox"`
	V            int    `json:"v" validate:"required,eq=1"`
	Type         string `json:"type" validate:"required,eq=card"`
	QuestionHTML string `json:"questionHtml" validate:"required"`
	AnswerHTML   string `json:"answerHtml" validate:"required"`
	Meta         *Meta  `json:"meta,omitempty"`
}

// BatchItem is one card inside a batch envelope.
type BatchItem struct {
	QuestionHTML string `json:"questionHtml" validate:"required"`
	AnswerHTML   string `json:"answerHtml" validate:"required"`
}

// BatchPayload is the multi-card envelope form.
type BatchPayload struct {
	App   string      `json:"app" validate:"required,eq=LernBox"`
	V     int         `json:"v" validate:"required,eq=1"`
	Type  string      `json:"type" validate:"required,eq=card_batch"`
	Items []BatchItem `json:"items" validate:"required,min=1,dive"`
	Meta  *Meta       `json:"meta,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs validator over a decoded envelope and converts
// failures into a schema DecodeError listing the offending fields.
func validateStruct(v any, form string) *DecodeError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return decodeErrorf(KindSchemaValidation, "%s: %v", form, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return &DecodeError{
		Kind:   KindSchemaValidation,
		Detail: "validation failed for " + form,
		Fields: fields,
	}
}
