// Package codec packs cards into versioned, compressed text payloads
// small enough for an optical code, and defensively decodes untrusted
// payload text back into validated card data.
//
// Wire format: "LB1:" + base64url(deflate(JSON envelope)), envelope
// being the single-card or batch form. Encode and Decode are pure and
// reentrant.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/TaughtMe/LernBox/internal/domain"
)

// maxDecompressedLen bounds what a hostile payload may inflate to.
const maxDecompressedLen = 1 << 20

// ErrEmptyBatch signals programmer misuse: encoding a batch with no
// items. Decoding never returns it.
var ErrEmptyBatch = errors.New("codec: cannot encode an empty batch")

// EncodeCard packs a single card into payload text.
func EncodeCard(content domain.CardContent) (string, error) {
	payload := CardPayload{
		App:          AppTag,
		V:            Version,
		Type:         TypeCard,
		QuestionHTML: content.QuestionHTML,
		AnswerHTML:   content.AnswerHTML,
		Meta:         &Meta{CreatedAt: time.Now().UTC().Format(time.RFC3339)},
	}
	return sealEnvelope(payload)
}

// EncodeBatch packs the items into one batch payload, preserving
// order. It errors only on an empty item list.
func EncodeBatch(items []domain.CardContent) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyBatch
	}
	batch := make([]BatchItem, len(items))
	for i, it := range items {
		batch[i] = BatchItem{QuestionHTML: it.QuestionHTML, AnswerHTML: it.AnswerHTML}
	}
	payload := BatchPayload{
		App:   AppTag,
		V:     Version,
		Type:  TypeCardBatch,
		Items: batch,
		Meta: &Meta{
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Count:     len(items),
		},
	}
	return sealEnvelope(payload)
}

func sealEnvelope(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(raw); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return PayloadPrefix + base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decoded is the successful result of Decode: exactly one of Single
// or Batch is set, matching Type.
type Decoded struct {
	Type   string
	Single *CardPayload
	Batch  *BatchPayload
}

// Items returns the decoded card contents in payload order,
// unsanitized. Callers must pass them through SafeItems (or the
// sanitizer directly) before storing or rendering them.
func (d *Decoded) Items() []domain.CardContent {
	if d.Single != nil {
		return []domain.CardContent{{
			QuestionHTML: d.Single.QuestionHTML,
			AnswerHTML:   d.Single.AnswerHTML,
		}}
	}
	out := make([]domain.CardContent, len(d.Batch.Items))
	for i, it := range d.Batch.Items {
		out[i] = domain.CardContent{QuestionHTML: it.QuestionHTML, AnswerHTML: it.AnswerHTML}
	}
	return out
}

// IsLikelyPayload is the cheap format sniff: it reports whether the
// text carries the payload prefix, without decoding anything.
func IsLikelyPayload(text string) bool {
	return strings.HasPrefix(text, PayloadPrefix)
}

// Decode turns untrusted payload text back into a validated envelope.
// Every failure is a *DecodeError with a specific kind; Decode never
// panics on malformed input.
func Decode(text string) (*Decoded, error) {
	if !IsLikelyPayload(text) {
		return nil, decodeErrorf(KindMissingPrefix, "payload does not start with %q", PayloadPrefix)
	}

	raw, derr := openEnvelope(strings.TrimPrefix(text, PayloadPrefix))
	if derr != nil {
		return nil, derr
	}

	var probe struct {
		Type string `json:"type"`
	}
	if derr := unmarshalEnvelope(raw, &probe); derr != nil {
		return nil, derr
	}

	switch probe.Type {
	case TypeCard:
		var payload CardPayload
		if derr := unmarshalEnvelope(raw, &payload); derr != nil {
			return nil, derr
		}
		if verr := validateStruct(payload, TypeCard); verr != nil {
			return nil, verr
		}
		return &Decoded{Type: TypeCard, Single: &payload}, nil

	case TypeCardBatch:
		var payload BatchPayload
		if derr := unmarshalEnvelope(raw, &payload); derr != nil {
			return nil, derr
		}
		if verr := validateStruct(payload, TypeCardBatch); verr != nil {
			return nil, verr
		}
		return &Decoded{Type: TypeCardBatch, Batch: &payload}, nil

	case "":
		return nil, decodeErrorf(KindUnknownType, "payload has no type discriminant")
	default:
		return nil, decodeErrorf(KindUnknownType, "unsupported payload type %q", probe.Type)
	}
}

// unmarshalEnvelope unmarshals envelope JSON, distinguishing broken
// JSON from well-formed JSON carrying a wrongly typed field: the
// latter is a schema failure naming the field, not a malformed
// payload.
func unmarshalEnvelope(raw []byte, v any) *DecodeError {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return &DecodeError{
			Kind:   KindSchemaValidation,
			Detail: fmt.Sprintf("field %s holds a %s, not a %s", ute.Field, ute.Value, ute.Type),
			Fields: []string{ute.Field},
		}
	}
	return decodeErrorf(KindMalformedJSON, "%v", err)
}

// openEnvelope reverses sealEnvelope: base64url decode then inflate.
func openEnvelope(body string) ([]byte, *DecodeError) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(body, "="))
	if err != nil {
		return nil, decodeErrorf(KindDecompressionFailed, "invalid base64url: %v", err)
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, maxDecompressedLen+1))
	if err != nil {
		return nil, decodeErrorf(KindDecompressionFailed, "%v", err)
	}
	if len(raw) == 0 {
		return nil, decodeErrorf(KindDecompressionFailed, "decompression yielded empty payload")
	}
	if len(raw) > maxDecompressedLen {
		return nil, decodeErrorf(KindDecompressionFailed, "decompressed payload exceeds %d bytes", maxDecompressedLen)
	}
	return raw, nil
}
