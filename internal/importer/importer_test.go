package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSV_Basic(t *testing.T) {
	input := "Hund,dog\nKatze,cat\n"

	res, err := CSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "Hund", res.Cards[0].QuestionHTML)
	assert.Equal(t, "dog", res.Cards[0].AnswerHTML)
	assert.Equal(t, "Katze", res.Cards[1].QuestionHTML)
	assert.Equal(t, 0, res.Skipped)
}

func TestCSV_SkipsHeaderRow(t *testing.T) {
	input := "Frage,Antwort\nHund,dog\n"

	res, err := CSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "Hund", res.Cards[0].QuestionHTML)
}

func TestCSV_SkipsIncompleteRows(t *testing.T) {
	input := "Hund,dog\nonly-one-cell\n,missing-question\nKatze,cat\n"

	res, err := CSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, res.Cards, 2)
	assert.Equal(t, 2, res.Skipped)
}

func TestCSV_EmptyInput(t *testing.T) {
	_, err := CSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoCards)
}

func TestCSV_SanitizesMarkup(t *testing.T) {
	input := `"<p>Hund</p><script>x()</script>","<b>dog</b>"` + "\n"

	res, err := CSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.NotContains(t, res.Cards[0].QuestionHTML, "script")
	assert.Contains(t, res.Cards[0].QuestionHTML, "Hund")
	assert.Equal(t, "<b>dog</b>", res.Cards[0].AnswerHTML)
}

func TestHardenCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "Hund", "Hund"},
		{"formula neutralized", "=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"plus neutralized", "+49 123", "'+49 123"},
		{"minus neutralized", "-1", "'-1"},
		{"at neutralized", "@import", "'@import"},
		{"nul bytes removed", "Hu\x00nd", "Hund"},
		{"bom stripped", "\uFEFFHund", "Hund"},
		{"bom then formula", "\uFEFF=1+1", "'=1+1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HardenCell(tt.input))
		})
	}
}

func TestFile_DispatchesOnExtension(t *testing.T) {
	res, err := File("karten.csv", strings.NewReader("Hund,dog\n"))
	require.NoError(t, err)
	assert.Len(t, res.Cards, 1)

	_, err = File("karten.pdf", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestXLSX_Basic(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "question"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "answer"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Hund"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "dog"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "=CMD()"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "formula"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := XLSX(&buf)
	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "Hund", res.Cards[0].QuestionHTML)
	assert.Equal(t, "&#39;=CMD()", res.Cards[1].QuestionHTML)
}
