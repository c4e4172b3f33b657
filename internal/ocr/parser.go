package ocr

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"vlocr/internal/model"
)

// Parser extracts structured components from the annotated text a VL model
// returns: HTML tables, LaTeX equations, <img>/<watermark>/<page_number>
// markers and ☐/☑ checkboxes.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	pageSplitRe    = regexp.MustCompile(`\n--- Page \d+ ---\n`)
	displayMathRe  = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	inlineMathRe   = regexp.MustCompile(`\$([^$\n]+)\$`)
	equationEnvRe  = regexp.MustCompile(`(?s)\\begin\{equation\*?\}(.*?)\\end\{equation\*?\}`)
	alignEnvRe     = regexp.MustCompile(`(?s)\\begin\{align\*?\}(.*?)\\end\{align\*?\}`)
	imgTagRe       = regexp.MustCompile(`(?s)<img>(.*?)</img>`)
	watermarkRe    = regexp.MustCompile(`<watermark>(.*?)</watermark>`)
	pageNumberRe   = regexp.MustCompile(`<page_number>(.*?)</page_number>`)
	checkedBoxRe   = regexp.MustCompile(`☑\s*([^\n☐☑]*)`)
	uncheckedBoxRe = regexp.MustCompile(`☐\s*([^\n☐☑]*)`)
)

// Parse splits raw output on page markers and parses each page.
func (p *Parser) Parse(raw string) *model.ParsedOutput {
	chunks := pageSplitRe.Split(raw, -1)

	out := &model.ParsedOutput{Pages: make([]model.ParsedPage, 0, len(chunks))}
	pageNum := 0
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		pageNum++
		out.Pages = append(out.Pages, p.parsePage(chunk, pageNum))
	}
	return out
}

func (p *Parser) parsePage(text string, pageNumber int) model.ParsedPage {
	tablesHTML, tablesCSV := p.ExtractTables(text)
	return model.ParsedPage{
		PageNumber:        pageNumber,
		RawText:           text,
		TablesHTML:        tablesHTML,
		TablesCSV:         tablesCSV,
		LatexEquations:    p.ExtractEquations(text),
		ImageDescriptions: extractTagged(imgTagRe, text),
		Watermarks:        extractTagged(watermarkRe, text),
		PageNumbersFound:  extractTagged(pageNumberRe, text),
		Checkboxes:        p.ExtractCheckboxes(text),
	}
}

// ExtractTables finds <table> elements in the content and returns each as
// normalized HTML plus a CSV rendering built from its rows.
func (p *Parser) ExtractTables(content string) (tablesHTML, tablesCSV []string) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			var buf bytes.Buffer
			if err := html.Render(&buf, n); err == nil {
				tablesHTML = append(tablesHTML, buf.String())
				tablesCSV = append(tablesCSV, tableToCSV(n))
			}
			return // nested tables are kept inside their parent
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tablesHTML, tablesCSV
}

// tableToCSV flattens a parsed <table> node into CSV, one record per <tr>.
func tableToCSV(table *html.Node) string {
	rows := tableRows(table)
	if len(rows) == 0 {
		return ""
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}

// tableRows collects cell text for every <tr> under the table node.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, strings.TrimSpace(nodeText(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

// ExtractEquations pulls LaTeX math out of the content. Display math is
// removed from the text before inline math is scanned so $$...$$ spans are
// not reported twice.
func (p *Parser) ExtractEquations(content string) []string {
	var equations []string

	appendMatches := func(re *regexp.Regexp, text string) string {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if eq := strings.TrimSpace(m[1]); eq != "" {
				equations = append(equations, eq)
			}
		}
		return re.ReplaceAllString(text, "")
	}

	rest := appendMatches(displayMathRe, content)
	rest = appendMatches(equationEnvRe, rest)
	rest = appendMatches(alignEnvRe, rest)
	appendMatches(inlineMathRe, rest)

	return equations
}

// ExtractCheckboxes finds ☑/☐ markers with their trailing labels.
func (p *Parser) ExtractCheckboxes(content string) []model.Checkbox {
	var boxes []model.Checkbox
	for _, m := range checkedBoxRe.FindAllStringSubmatch(content, -1) {
		boxes = append(boxes, model.Checkbox{Checked: true, Label: strings.TrimSpace(m[1])})
	}
	for _, m := range uncheckedBoxRe.FindAllStringSubmatch(content, -1) {
		boxes = append(boxes, model.Checkbox{Checked: false, Label: strings.TrimSpace(m[1])})
	}
	return boxes
}

func extractTagged(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		if v := strings.TrimSpace(m[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}
