package ocr

import (
	"fmt"
	"regexp"
	"strings"

	"vlocr/internal/model"
)

const maxEntities = 20

// Extractor finds named entities and labeled fields in recognized text.
// It works on surface patterns plus label context, the counterpart of the
// semantic extraction the original system layered over its VL model.
type Extractor struct {
	entityPatterns  map[string][]*regexp.Regexp
	contextPatterns []contextPattern
	docPatterns     map[string]map[string][]*regexp.Regexp
}

// contextPattern extracts a set of fields only when one of its trigger words
// appears in the document.
type contextPattern struct {
	name     string
	triggers []string
	extract  map[string]*regexp.Regexp
}

// personExclusions are document labels that match the naive two-capitalized-
// words person pattern and must be filtered out.
var personExclusions = map[string]struct{}{
	"bill to": {}, "ship to": {}, "sold to": {}, "deliver to": {},
	"ship mode": {}, "second class": {}, "first class": {}, "standard class": {},
	"balance due": {}, "amount due": {}, "total due": {}, "grand total": {},
	"sub total": {}, "thank you": {}, "terms and": {}, "notes and": {},
	"order id": {}, "invoice number": {}, "receipt number": {}, "customer id": {},
}

// NewExtractor creates an Extractor with the built-in pattern sets.
func NewExtractor() *Extractor {
	return &Extractor{
		entityPatterns: map[string][]*regexp.Regexp{
			"person": {
				regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
				regexp.MustCompile(`(?:Mr\.|Mrs\.|Ms\.|Dr\.)\s+[A-Z][a-z]+`),
			},
			"organization": {
				regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Inc\.|Corp\.|LLC|Ltd\.)`),
				regexp.MustCompile(`[A-Z]{2,}\s+(?:Corporation|Company|Industries)`),
			},
			"date": {
				regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
				regexp.MustCompile(`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
				regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
			},
			"money": {
				regexp.MustCompile(`\$[\d,]+\.?\d*`),
				regexp.MustCompile(`[\d,]+\.?\d*\s*(?:USD|EUR|GBP)`),
				regexp.MustCompile(`(?:€|£|¥)[\d,]+\.?\d*`),
			},
			"email": {
				regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			},
			"phone": {
				regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
				regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),
			},
			"address": {
				regexp.MustCompile(`\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd)`),
			},
		},
		contextPatterns: []contextPattern{
			{
				name:     "payment_info",
				triggers: []string{"payment", "pay", "due", "amount", "total"},
				extract: map[string]*regexp.Regexp{
					"amount":   regexp.MustCompile(`(?i)(?:total|amount|due|payment)\s*:?\s*\$?([\d,]+\.?\d*)`),
					"due_date": regexp.MustCompile(`(?i)(?:due|payment)\s+(?:date|by)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
					"method":   regexp.MustCompile(`(?i)(?:pay|payment)\s+(?:by|via|method)\s*:?\s*(\w+)`),
				},
			},
			{
				name:     "contact_info",
				triggers: []string{"contact", "phone", "email", "address", "reach"},
				extract: map[string]*regexp.Regexp{
					"phone":   regexp.MustCompile(`(?i)(?:phone|tel|call)\s*:?\s*([\d\s\-()]+)`),
					"email":   regexp.MustCompile(`(?i)(?:email|e-mail)\s*:?\s*([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`),
					"address": regexp.MustCompile(`(?i)(?:address|location)\s*:?\s*(.+)`),
				},
			},
			{
				name:     "identification",
				triggers: []string{"id", "number", "reference", "account"},
				extract: map[string]*regexp.Regexp{
					"id_number":   regexp.MustCompile(`(?i)(?:id|identification|account|reference)\s*(?:number|#|no)?\s*:?\s*([A-Z0-9\-]+)`),
					"customer_id": regexp.MustCompile(`(?i)(?:customer|client)\s*(?:id|#)\s*:?\s*([A-Z0-9\-]+)`),
				},
			},
			{
				name:     "dates",
				triggers: []string{"date", "issued", "effective", "expires"},
				extract: map[string]*regexp.Regexp{
					"issue_date":     regexp.MustCompile(`(?i)(?:issue|issued|created)\s+(?:date)?\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
					"effective_date": regexp.MustCompile(`(?i)(?:effective|start)\s+(?:date)?\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
					"expiry_date":    regexp.MustCompile(`(?i)(?:expir|end)\w*\s+(?:date)?\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
				},
			},
		},
		docPatterns: buildDocPatterns(),
	}
}

// buildDocPatterns returns the per-document-type labeled field patterns.
func buildDocPatterns() map[string]map[string][]*regexp.Regexp {
	mk := func(patterns ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			out[i] = regexp.MustCompile(`(?im)` + p)
		}
		return out
	}
	return map[string]map[string][]*regexp.Regexp{
		TypeInvoice: {
			"invoice_number": mk(`(?:Invoice|INV)\s*#?\s*:?\s*(\w+)`, `#\s*(\d+)`),
			"bill_to":        mk(`Bill\s+To\s*:?\s*\*?\*?\s*([A-Za-z][A-Za-z\s]+?)(?:\n|Ship)`),
			"ship_to":        mk(`Ship\s+To\s*:?\s*\*?\*?\s*([^\n]+)`),
			"subtotal":       mk(`Subtotal\s*:?\s*\$?([\d,]+\.?\d*)`),
			"discount":       mk(`Discount\s*(?:\([^)]+\))?\s*:?\s*\$?([\d,]+\.?\d*)`),
			"tax":            mk(`Tax\s*(?:\([^)]+\))?\s*:?\s*\$?([\d,]+\.?\d*)`),
			"shipping":       mk(`Shipping\s*:?\s*\$?([\d,]+\.?\d*)`),
			"ship_mode":      mk(`Ship\s+Mode\s*:?\s*([^\n]+)`),
			"order_id":       mk(`Order\s+ID\s*:?\s*([^\n]+)`),
			"notes":          mk(`Notes\s*:?\s*([^\n]+)`),
			"terms":          mk(`Terms\s*:?\s*([^\n]+)`),
		},
		TypeReceipt: {
			"receipt_number": mk(`(?:Receipt|Transaction)\s*(?:ID)?\s*#?\s*:?\s*(\w+)`),
			"cashier":        mk(`Cashier\s*:?\s*([^\n]+)`),
			"payment_method": mk(`(?:Paid|Payment)\s+(?:by|via)\s*:?\s*([^\n]+)`),
		},
		TypeContract: {
			"contract_date":  mk(`(?:dated?|entered into)\s+(?:as of\s+)?([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
			"parties":        mk(`(?:between|parties?)\s*:?\s*([^\n]+)`),
			"effective_date": mk(`effective\s+(?:date)?\s*:?\s*([^\n]+)`),
		},
		TypeBankStatement: {
			"account_number":    mk(`(?:Account|Acct)\s*#?\s*:?\s*([X\d\-]+)`, `Account\s+Number\s*:?\s*([^\n]+)`),
			"statement_period":  mk(`(?:Statement\s+Period|Period)\s*:?\s*([^\n]+)`),
			"opening_balance":   mk(`(?:Opening|Beginning)\s+Balance\s*:?\s*\$?([\d,]+\.?\d*)`),
			"closing_balance":   mk(`(?:Closing|Ending)\s+Balance\s*:?\s*\$?([\d,]+\.?\d*)`),
			"total_deposits":    mk(`(?:Total\s+)?Deposits\s*:?\s*\$?([\d,]+\.?\d*)`),
			"total_withdrawals": mk(`(?:Total\s+)?Withdrawals\s*:?\s*\$?([\d,]+\.?\d*)`),
		},
		TypeIDDocument: {
			"document_number": mk(`(?:ID|License|Passport)\s*#?\s*:?\s*([A-Z0-9\-]+)`, `(?:Number|No\.?)\s*:?\s*([A-Z0-9\-]+)`),
			"full_name":       mk(`(?:Name|Full\s+Name)\s*:?\s*([A-Za-z\s]+)`),
			"date_of_birth":   mk(`(?:DOB|Date\s+of\s+Birth|Birth\s+Date)\s*:?\s*([^\n]+)`),
			"expiration_date": mk(`(?:Exp|Expires?|Expiration)\s*:?\s*([^\n]+)`),
			"issue_date":      mk(`(?:Issued?|Issue\s+Date)\s*:?\s*([^\n]+)`),
			"address":         mk(`(?:Address|Addr)\s*:?\s*([^\n]+)`),
		},
		TypeMedical: {
			"patient_name": mk(`(?:Patient|Name)\s*:?\s*([A-Za-z\s]+)`),
			"patient_id":   mk(`(?:Patient|Medical)\s*(?:ID|#)\s*:?\s*([^\n]+)`, `MRN\s*:?\s*([^\n]+)`),
			"provider":     mk(`(?:Provider|Physician|Doctor)\s*:?\s*([^\n]+)`),
			"diagnosis":    mk(`(?:Diagnosis|Dx)\s*:?\s*([^\n]+)`),
			"visit_date":   mk(`(?:Visit|Service)\s+Date\s*:?\s*([^\n]+)`),
			"facility":     mk(`(?:Facility|Hospital|Clinic)\s*:?\s*([^\n]+)`),
		},
		TypeTaxDocument: {
			"tax_year":      mk(`(?:Tax\s+Year|Year)\s*:?\s*(\d{4})`),
			"form_type":     mk(`Form\s+(\d+[A-Z\-]*)`),
			"taxpayer_name": mk(`(?:Taxpayer|Name)\s*:?\s*([^\n]+)`),
			"ssn":           mk(`(?:SSN|Social\s+Security)\s*:?\s*([X\d\-]+)`),
			"gross_income":  mk(`(?:Gross\s+Income|Total\s+Income)\s*:?\s*\$?([\d,]+\.?\d*)`),
			"tax_due":       mk(`(?:Tax\s+Due|Amount\s+Owed)\s*:?\s*\$?([\d,]+\.?\d*)`),
			"refund":        mk(`(?:Refund|Amount\s+Refunded)\s*:?\s*\$?([\d,]+\.?\d*)`),
		},
	}
}

var (
	commonDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)(?:Date|Dated?)\s*:?\s*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?im)(?:Date|Dated?)\s*:?\s*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
	}
	commonTotalPattern = regexp.MustCompile(`(?im)(?:Total|Grand Total|Amount Due|Balance Due)\s*:?\s*\*?\*?\s*\$?([\d,]+\.?\d*)`)

	productWords = []string{"inkjet", "laser", "printer", "machine", "class"}

	bulletRe    = regexp.MustCompile(`(?m)^\s*(?:[•\-*]|\d+\.)\s*(.+)$`)
	importantRe = regexp.MustCompile(`(?im)(?:important|note|attention|warning)\s*:?\s*(.+)$`)
	requiredRe  = regexp.MustCompile(`(?im)(?:please|must|required)\s+(.+)$`)
)

// Extract runs entity and context-aware field extraction over the text and
// builds a short summary with key points.
func (e *Extractor) Extract(text string) model.ExtractionResult {
	result := model.ExtractionResult{Fields: make(map[string]model.Field)}
	lower := strings.ToLower(text)

	for entityType, patterns := range e.entityPatterns {
		for _, re := range patterns {
			for _, m := range re.FindAllString(text, -1) {
				if entityType == "person" && isExcludedPerson(m) {
					continue
				}
				result.Entities = append(result.Entities, model.Entity{
					Type:       entityType,
					Value:      m,
					Confidence: 0.8,
				})
			}
		}
	}
	if len(result.Entities) > maxEntities {
		result.Entities = result.Entities[:maxEntities]
	}

	for _, cp := range e.contextPatterns {
		if !containsAny(lower, cp.triggers) {
			continue
		}
		for name, re := range cp.extract {
			if m := re.FindStringSubmatch(text); m != nil {
				result.Fields[name] = model.Field{
					Name:       name,
					Value:      strings.TrimSpace(m[1]),
					Confidence: 0.85,
					Context:    cp.name,
				}
			}
		}
	}

	result.Summary = summarize(text, result.Entities)
	result.KeyPoints = keyPoints(text)
	return result
}

// ExtractForType returns labeled fields using the common patterns plus the
// pattern set registered for the classified document type.
func (e *Extractor) ExtractForType(text, docType string) map[string]any {
	fields := make(map[string]any)

	for _, re := range commonDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			fields["date"] = strings.TrimSpace(m[1])
			break
		}
	}
	if m := commonTotalPattern.FindStringSubmatch(text); m != nil {
		fields["total"] = strings.TrimSpace(m[1])
	}

	for name, patterns := range e.docPatterns[docType] {
		for _, re := range patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*"))
			if cleaned != "" {
				fields[name] = cleaned
			}
			break
		}
	}

	return structureNested(fields)
}

// structureNested lifts address-like fields into nested objects to match the
// v2 wire shape.
func structureNested(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case "bill_to":
			out[k] = map[string]any{"name": v}
		case "ship_to":
			out[k] = map[string]any{"location": v}
		default:
			out[k] = v
		}
	}
	return out
}

func isExcludedPerson(match string) bool {
	lower := strings.ToLower(match)
	if _, ok := personExclusions[lower]; ok {
		return true
	}
	return containsAny(lower, productWords)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// summarize describes the document by its entity mix, falling back to a
// word count for entity-free text.
func summarize(text string, entities []model.Entity) string {
	counts := make(map[string]int)
	for _, e := range entities {
		counts[e.Type]++
	}

	var parts []string
	if n := counts["organization"]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d organization(s)", n))
	}
	if n := counts["person"]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d person(s)", n))
	}
	if n := counts["money"]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d monetary value(s)", n))
	}
	if n := counts["date"]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d date(s)", n))
	}
	if len(parts) > 0 {
		return fmt.Sprintf("Document contains: %s.", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("Document with %d words.", len(strings.Fields(text)))
}

// keyPoints collects bullet lines and flagged sentences, capped at ten.
func keyPoints(text string) []string {
	var points []string

	bullets := bulletRe.FindAllStringSubmatch(text, -1)
	for i, m := range bullets {
		if i == 5 {
			break
		}
		points = append(points, strings.TrimSpace(m[1]))
	}

	for _, re := range []*regexp.Regexp{importantRe, requiredRe} {
		matches := re.FindAllStringSubmatch(text, 2)
		for _, m := range matches {
			points = append(points, strings.TrimSpace(m[1]))
		}
	}

	if len(points) > 10 {
		points = points[:10]
	}
	return points
}
