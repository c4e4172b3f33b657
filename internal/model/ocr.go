package model

// PageResult is the OCR output for a single page.
type PageResult struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// RecognitionResult is the raw engine output for a whole document,
// before parsing and enrichment.
type RecognitionResult struct {
	Pages      []PageResult `json:"pages"`
	TotalText  string       `json:"total_text"`
	TotalPages int          `json:"total_pages"`
}

// Checkbox is a checkbox extracted from annotated OCR output.
type Checkbox struct {
	Checked bool   `json:"checked"`
	Label   string `json:"label"`
}

// ParsedPage holds the structured components of one page of annotated output.
type ParsedPage struct {
	PageNumber        int        `json:"page_number"`
	RawText           string     `json:"raw_text"`
	TablesHTML        []string   `json:"tables_html"`
	TablesCSV         []string   `json:"tables_csv"`
	LatexEquations    []string   `json:"latex_equations"`
	ImageDescriptions []string   `json:"image_descriptions"`
	Watermarks        []string   `json:"watermarks"`
	PageNumbersFound  []string   `json:"page_numbers_extracted"`
	Checkboxes        []Checkbox `json:"checkboxes"`
}

// ParsedOutput is the complete parsed document.
type ParsedOutput struct {
	Pages []ParsedPage `json:"pages"`
}

// Classification is the result of document type detection.
type Classification struct {
	DocumentType  string             `json:"document_type"`
	Confidence    float64            `json:"confidence"`
	AllScores     map[string]float64 `json:"all_scores"`
	KeywordsFound []string           `json:"keywords_found"`
}

// LanguageDetection is the result of language detection.
type LanguageDetection struct {
	PrimaryLanguage    string   `json:"primary_language"`
	Confidence         float64  `json:"confidence"`
	ScriptDetected     string   `json:"script_detected"`
	IsMultilingual     bool     `json:"is_multilingual"`
	SecondaryLanguages []string `json:"secondary_languages"`
}

// Entity is a typed value found in document text.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Field is a named value extracted from document text.
type Field struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

// ExtractionResult bundles entity and field extraction output.
type ExtractionResult struct {
	Fields    map[string]Field `json:"fields"`
	Entities  []Entity         `json:"entities"`
	Summary   string           `json:"summary"`
	KeyPoints []string         `json:"key_points"`
}

// LineItem is a row parsed from a document table.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity,omitempty"`
	Rate        string `json:"rate,omitempty"`
	Amount      string `json:"amount,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Category    string `json:"category,omitempty"`
}

// StructuredOutput is the v2 response shape combining classification,
// language, fields, line items and entities with the raw parse.
type StructuredOutput struct {
	DocumentType    string            `json:"document_type"`
	Confidence      float64           `json:"confidence"`
	Language        string            `json:"language"`
	ExtractedFields map[string]any    `json:"extracted_fields"`
	LineItems       []LineItem        `json:"line_items"`
	Entities        []Entity          `json:"entities"`
	Raw             StructuredRawData `json:"raw"`
}

// StructuredRawData carries the unenriched parse inside StructuredOutput.
type StructuredRawData struct {
	Text       string       `json:"text"`
	TablesHTML []string     `json:"tables_html"`
	Pages      []ParsedPage `json:"pages"`
}
