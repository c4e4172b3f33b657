package ocr

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"vlocr/internal/model"
)

// Converter renders a ParsedOutput in the formats the API exposes.
type Converter struct{}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert dispatches on the requested format, defaulting to JSON.
func (c *Converter) Convert(parsed *model.ParsedOutput, format string) (string, error) {
	switch format {
	case "xml":
		return c.ToXML(parsed)
	case "csv":
		return c.ToCSV(parsed), nil
	default:
		return c.ToJSON(parsed)
	}
}

// ToJSON renders the parsed output as indented JSON.
func (c *Converter) ToJSON(parsed *model.ParsedOutput) (string, error) {
	b, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal parsed output: %w", err)
	}
	return string(b), nil
}

// XML element tree mirroring the JSON page structure.
type xmlDocument struct {
	XMLName xml.Name  `xml:"DocumentOCR"`
	Pages   []xmlPage `xml:"Page"`
}

type xmlPage struct {
	Number      int            `xml:"number,attr"`
	RawText     string         `xml:"RawText"`
	Tables      *xmlTables     `xml:"Tables,omitempty"`
	Equations   *xmlEquations  `xml:"Equations,omitempty"`
	Images      *xmlImages     `xml:"Images,omitempty"`
	Watermarks  *xmlWatermarks `xml:"Watermarks,omitempty"`
	PageNumbers *xmlPageNums   `xml:"PageNumbers,omitempty"`
	Checkboxes  *xmlCheckboxes `xml:"Checkboxes,omitempty"`
}

type xmlTables struct {
	Tables []xmlTable `xml:"Table"`
}

type xmlTable struct {
	ID          int    `xml:"id,attr"`
	HTMLContent string `xml:"HTMLContent"`
	CSVContent  string `xml:"CSVContent,omitempty"`
}

type xmlEquations struct {
	Equations []xmlIndexedValue `xml:"Equation"`
}

type xmlImages struct {
	Descriptions []xmlIndexedValue `xml:"Description"`
}

type xmlWatermarks struct {
	Watermarks []xmlIndexedValue `xml:"Watermark"`
}

type xmlPageNums struct {
	PageNumbers []xmlIndexedValue `xml:"PageNumber"`
}

type xmlCheckboxes struct {
	Checkboxes []xmlCheckbox `xml:"Checkbox"`
}

type xmlIndexedValue struct {
	ID    int    `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type xmlCheckbox struct {
	ID      int    `xml:"id,attr"`
	Checked bool   `xml:"checked,attr"`
	Label   string `xml:",chardata"`
}

// ToXML renders the parsed output as an indented DocumentOCR tree.
func (c *Converter) ToXML(parsed *model.ParsedOutput) (string, error) {
	doc := xmlDocument{}
	for _, page := range parsed.Pages {
		xp := xmlPage{Number: page.PageNumber, RawText: page.RawText}

		if len(page.TablesHTML) > 0 {
			xp.Tables = &xmlTables{}
			for i, t := range page.TablesHTML {
				xt := xmlTable{ID: i + 1, HTMLContent: t}
				if i < len(page.TablesCSV) {
					xt.CSVContent = page.TablesCSV[i]
				}
				xp.Tables.Tables = append(xp.Tables.Tables, xt)
			}
		}
		if len(page.LatexEquations) > 0 {
			xp.Equations = &xmlEquations{Equations: indexValues(page.LatexEquations)}
		}
		if len(page.ImageDescriptions) > 0 {
			xp.Images = &xmlImages{Descriptions: indexValues(page.ImageDescriptions)}
		}
		if len(page.Watermarks) > 0 {
			xp.Watermarks = &xmlWatermarks{Watermarks: indexValues(page.Watermarks)}
		}
		if len(page.PageNumbersFound) > 0 {
			xp.PageNumbers = &xmlPageNums{PageNumbers: indexValues(page.PageNumbersFound)}
		}
		if len(page.Checkboxes) > 0 {
			xp.Checkboxes = &xmlCheckboxes{}
			for i, cb := range page.Checkboxes {
				xp.Checkboxes.Checkboxes = append(xp.Checkboxes.Checkboxes, xmlCheckbox{
					ID:      i + 1,
					Checked: cb.Checked,
					Label:   cb.Label,
				})
			}
		}
		doc.Pages = append(doc.Pages, xp)
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal parsed output: %w", err)
	}
	return xml.Header + string(b), nil
}

// ToCSV concatenates the CSV renderings of every table with separators.
// Documents without tables get an explanatory line, like the original API.
func (c *Converter) ToCSV(parsed *model.ParsedOutput) string {
	var tables []string
	for _, page := range parsed.Pages {
		tables = append(tables, page.TablesCSV...)
	}
	if len(tables) == 0 {
		return "No tables found or could not convert."
	}

	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = fmt.Sprintf("--- Table %d ---\n%s", i+1, t)
	}
	return strings.Join(parts, "\n\n")
}

func indexValues(values []string) []xmlIndexedValue {
	out := make([]xmlIndexedValue, len(values))
	for i, v := range values {
		out[i] = xmlIndexedValue{ID: i + 1, Value: v}
	}
	return out
}
