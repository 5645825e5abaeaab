package codec

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/sanitize"
)

// Report accounts for every item an import path shed. Truncation and
// per-item rejection are the only sanctioned ways to lose data, and
// both are surfaced to the caller.
type Report struct {
	Imported  int
	Truncated int // items beyond the MaxItems cap, dropped silently
	Rejected  int // items empty or oversized after sanitization
}

// SafeItems sanitizes raw card contents and applies the hard caps:
// at most MaxItems items, at most MaxHTMLLen characters per sanitized
// field. Items failing the per-field checks are dropped individually.
func SafeItems(raw []domain.CardContent) ([]domain.CardContent, Report) {
	var report Report

	if len(raw) > MaxItems {
		report.Truncated = len(raw) - MaxItems
		raw = raw[:MaxItems]
	}

	out := make([]domain.CardContent, 0, len(raw))
	for _, item := range raw {
		q := sanitize.HTML(strings.TrimSpace(item.QuestionHTML))
		a := sanitize.HTML(strings.TrimSpace(item.AnswerHTML))

		if sanitize.IsHTMLEmpty(q) || sanitize.IsHTMLEmpty(a) {
			report.Rejected++
			continue
		}
		if len(q) > MaxHTMLLen || len(a) > MaxHTMLLen {
			report.Rejected++
			continue
		}
		out = append(out, domain.CardContent{QuestionHTML: q, AnswerHTML: a})
	}

	report.Imported = len(out)
	return out, report
}

// LooseItems accepts payloads produced by older app versions or
// manual text entry: a JSON object, an array of objects, or an object
// with an items array, optionally wrapped in base64url, using either
// the questionHtml/answerHtml names or the legacy question/answer and
// front/back names. Everything still runs through sanitization and
// the same caps. The bool result reports whether anything usable was
// recovered.
func LooseItems(input string) ([]domain.CardContent, Report, bool) {
	parsed, ok := parseLoose(input)
	if !ok {
		return nil, Report{}, false
	}

	var raw []any
	switch v := parsed.(type) {
	case []any:
		raw = v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			raw = items
		} else {
			raw = []any{v}
		}
	default:
		return nil, Report{}, false
	}
	if len(raw) == 0 {
		return nil, Report{}, false
	}

	contents := make([]domain.CardContent, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		q := firstString(obj, "questionHtml", "question", "front")
		a := firstString(obj, "answerHtml", "answer", "back")
		if q == "" && a == "" {
			continue
		}
		contents = append(contents, domain.CardContent{QuestionHTML: q, AnswerHTML: a})
	}

	items, report := SafeItems(contents)
	return items, report, len(items) > 0
}

// parseLoose tries the input as direct JSON, then as base64url-coded
// JSON.
func parseLoose(input string) (any, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	var parsed any
	if err := json.Unmarshal([]byte(input), &parsed); err == nil {
		return parsed, true
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(input, "="))
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(decoded, &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ImportText is the single entry point for scanned or pasted text.
// Prefixed payloads go through the strict decoder; anything else
// falls back to the permissive path. The returned items are sanitized
// and capped, ready for storage.
func ImportText(text string) ([]domain.CardContent, Report, error) {
	if IsLikelyPayload(text) {
		decoded, err := Decode(text)
		if err != nil {
			return nil, Report{}, err
		}
		items, report := SafeItems(decoded.Items())
		if len(items) == 0 {
			return nil, report, decodeErrorf(KindEmptyOrOversizedItem,
				"no usable items after sanitization (%d rejected)", report.Rejected)
		}
		return items, report, nil
	}

	if items, report, ok := LooseItems(text); ok {
		return items, report, nil
	}
	return nil, Report{}, decodeErrorf(KindMissingPrefix,
		"payload does not start with %q and is not recognizable card data", PayloadPrefix)
}
