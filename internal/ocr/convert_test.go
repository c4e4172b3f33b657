package ocr

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"vlocr/internal/model"
)

func sampleParsed() *model.ParsedOutput {
	return &model.ParsedOutput{
		Pages: []model.ParsedPage{
			{
				PageNumber:     1,
				RawText:        "Invoice total $5.00",
				TablesHTML:     []string{"<table><tr><td>Name</td></tr></table>"},
				TablesCSV:      []string{"Name\n"},
				LatexEquations: []string{"E = mc^2"},
				Checkboxes:     []model.Checkbox{{Checked: true, Label: "Approved"}},
			},
			{
				PageNumber: 2,
				RawText:    "Second page",
				TablesCSV:  []string{"Qty\n"},
			},
		},
	}
}

func TestConvertDefaultsToJSON(t *testing.T) {
	out, err := NewConverter().Convert(sampleParsed(), "json")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	var decoded model.ParsedOutput
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	assert.Len(t, decoded.Pages, 2)
	assert.Equal(t, "Invoice total $5.00", decoded.Pages[0].RawText)
}

func TestConvertToXML(t *testing.T) {
	out, err := NewConverter().Convert(sampleParsed(), "xml")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	assert.True(t, strings.HasPrefix(out, xmlHeaderPrefix), "missing XML header")
	assert.Contains(t, out, "<DocumentOCR>")
	assert.Contains(t, out, `<Page number="1">`)
	assert.Contains(t, out, `<Page number="2">`)
	assert.Contains(t, out, "<Equation id=\"1\">E = mc^2</Equation>")
	assert.Contains(t, out, `<Checkbox id="1" checked="true">Approved</Checkbox>`)
	assert.Contains(t, out, "<CSVContent>Name&#xA;</CSVContent>")
}

const xmlHeaderPrefix = "<?xml"

func TestConvertToCSV(t *testing.T) {
	out, err := NewConverter().Convert(sampleParsed(), "csv")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	assert.Contains(t, out, "--- Table 1 ---\nName\n")
	assert.Contains(t, out, "--- Table 2 ---\nQty\n")
}

func TestConvertToCSVNoTables(t *testing.T) {
	out, err := NewConverter().Convert(&model.ParsedOutput{
		Pages: []model.ParsedPage{{PageNumber: 1, RawText: "plain text"}},
	}, "csv")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	assert.Equal(t, "No tables found or could not convert.", out)
}

func TestConvertUnknownFormatFallsBackToJSON(t *testing.T) {
	out, err := NewConverter().Convert(sampleParsed(), "yaml")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	assert.True(t, json.Valid([]byte(out)))
}
