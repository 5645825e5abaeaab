package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML_RemovesScripts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"script tag", `<p>hi</p><script>alert(1)</script>`},
		{"event handler", `<p onclick="alert(1)">hi</p>`},
		{"iframe", `<iframe src="https://evil.example"></iframe><p>hi</p>`},
		{"javascript href", `<a href="javascript:alert(1)">hi</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean := HTML(tt.input)
			assert.NotContains(t, clean, "script")
			assert.NotContains(t, clean, "onclick")
			assert.NotContains(t, clean, "iframe")
			assert.NotContains(t, clean, "javascript:")
			assert.Contains(t, clean, "hi")
		})
	}
}

func TestHTML_KeepsFormatting(t *testing.T) {
	in := `<p>Der <strong>Hund</strong> ist <em>klein</em></p>`
	assert.Equal(t, in, HTML(in))
}

func TestHTML_HardensLinks(t *testing.T) {
	clean := HTML(`<a href="https://example.com">link</a>`)
	assert.Contains(t, clean, `rel=`)
	assert.Contains(t, clean, "nofollow")
	assert.Contains(t, clean, `target="_blank"`)
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "dog", "dog"},
		{"tags stripped", "<p>Hund</p>", "Hund"},
		{"nested tags", "<p>der <b>Hund</b></p>", "der Hund"},
		{"whitespace collapsed", "<p>  der\n\tHund  </p>", "der Hund"},
		{"empty", "", ""},
		{"only markup", "<p><br/></p>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestIsHTMLEmpty(t *testing.T) {
	assert.True(t, IsHTMLEmpty(""))
	assert.True(t, IsHTMLEmpty("<p> </p>"))
	assert.False(t, IsHTMLEmpty("<p>x</p>"))
}

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		name     string
		typed    string
		expected string
		match    bool
	}{
		{"exact", "dog", "<p>dog</p>", true},
		{"case insensitive", "Dog", "<p>dog</p>", true},
		{"whitespace ignored", "  the   dog ", "<p>the dog</p>", true},
		{"wrong answer", "cat", "<p>dog</p>", false},
		{"markup in expected", "the dog", "<p>the <b>dog</b></p>", true},
		{"empty typed", "", "<p>dog</p>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, AnswersMatch(tt.typed, tt.expected))
		})
	}
}
