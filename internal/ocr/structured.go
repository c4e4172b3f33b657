package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"vlocr/internal/model"
)

// StructuredProcessor combines the classifier, language detector, field
// extractor and table line-item parsing into the v2 response shape.
type StructuredProcessor struct {
	classifier *Classifier
	detector   *LanguageDetector
	extractor  *Extractor
	parser     *Parser
}

// NewStructuredProcessor creates a StructuredProcessor with default components.
func NewStructuredProcessor() *StructuredProcessor {
	return &StructuredProcessor{
		classifier: NewClassifier(),
		detector:   NewLanguageDetector(),
		extractor:  NewExtractor(),
		parser:     NewParser(),
	}
}

// Process enriches raw OCR text into a StructuredOutput. tablesHTML may be
// nil, in which case tables found by the parser are used.
func (sp *StructuredProcessor) Process(text string, tablesHTML []string) model.StructuredOutput {
	classification := sp.classifier.Classify(text)
	language := sp.detector.Detect(text)
	extraction := sp.extractor.Extract(text)
	parsed := sp.parser.Parse(text)

	if tablesHTML == nil {
		for _, page := range parsed.Pages {
			tablesHTML = append(tablesHTML, page.TablesHTML...)
		}
	}

	var lineItems []model.LineItem
	for _, table := range tablesHTML {
		lineItems = append(lineItems, ParseLineItems(table)...)
	}

	return model.StructuredOutput{
		DocumentType:    classification.DocumentType,
		Confidence:      round2(classification.Confidence),
		Language:        language.PrimaryLanguage,
		ExtractedFields: sp.extractor.ExtractForType(text, classification.DocumentType),
		LineItems:       lineItems,
		Entities:        extraction.Entities,
		Raw: model.StructuredRawData{
			Text:       text,
			TablesHTML: tablesHTML,
			Pages:      parsed.Pages,
		},
	}
}

var skuRe = regexp.MustCompile(`([A-Z]+-[A-Z]+-\d+)`)

// ParseLineItems reads an HTML table whose first row is a header and maps
// the recognized columns onto LineItem fields. Rows without a description
// are skipped.
func ParseLineItems(tableHTML string) []model.LineItem {
	doc, err := html.Parse(strings.NewReader(tableHTML))
	if err != nil {
		return nil
	}

	var table *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if table != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "table" {
			table = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if table == nil {
		return nil
	}

	rows := tableRows(table)
	if len(rows) < 2 {
		return nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var items []model.LineItem
	for _, row := range rows[1:] {
		if len(row) != len(headers) {
			continue
		}
		var item model.LineItem
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			switch headers[i] {
			case "item", "description", "product":
				parseDescriptionCell(cell, &item)
			case "quantity", "qty":
				item.Quantity = cell
			case "rate", "price", "unit price":
				item.Rate = cell
			case "amount", "total", "subtotal":
				item.Amount = cell
			}
		}
		if item.Description != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseDescriptionCell splits a description cell that may carry a category
// and SKU on a second line.
func parseDescriptionCell(cell string, item *model.LineItem) {
	parts := strings.SplitN(cell, "\n", 2)
	item.Description = strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return
	}
	extra := parts[1]
	if m := skuRe.FindString(extra); m != "" {
		item.SKU = m
		category := strings.TrimSpace(strings.Trim(strings.TrimSpace(strings.Replace(extra, m, "", 1)), ","))
		if category != "" {
			item.Category = category
		}
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
