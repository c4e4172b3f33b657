package ocr

import (
	"sort"
	"strings"

	"vlocr/internal/model"
)

// Document types produced by the classifier.
const (
	TypeInvoice       = "invoice"
	TypeReceipt       = "receipt"
	TypeContract      = "contract"
	TypeBankStatement = "bank_statement"
	TypeIDDocument    = "id_document"
	TypeMedical       = "medical"
	TypeTaxDocument   = "tax_document"
	TypeForm          = "form"
	TypeLetter        = "letter"
	TypeReport        = "report"
	TypeUnknown       = "unknown"
)

// keyword carries a term and its weight toward a document type score.
type keyword struct {
	term   string
	weight float64
}

// Classifier assigns a document type by weighted keyword scoring over the
// recognized text. Scores are normalized so confidence is comparable across
// documents of different lengths.
type Classifier struct {
	keywords map[string][]keyword
}

// NewClassifier creates a Classifier with the built-in keyword sets.
func NewClassifier() *Classifier {
	return &Classifier{keywords: map[string][]keyword{
		TypeInvoice: {
			{"invoice", 3}, {"invoice number", 4}, {"bill to", 2}, {"ship to", 1.5},
			{"due date", 2}, {"payment terms", 2}, {"subtotal", 1.5}, {"total due", 2},
			{"purchase order", 1.5}, {"net 30", 1.5}, {"balance due", 2},
		},
		TypeReceipt: {
			{"receipt", 3}, {"cashier", 2.5}, {"change", 1}, {"transaction", 1.5},
			{"thank you for shopping", 3}, {"paid by", 1.5}, {"cash", 1}, {"credit card", 1},
			{"item", 0.5}, {"store", 1},
		},
		TypeContract: {
			{"agreement", 3}, {"contract", 3}, {"whereas", 3}, {"hereby", 2.5},
			{"parties", 2}, {"terms and conditions", 2}, {"covenant", 2.5},
			{"termination", 2}, {"in witness whereof", 4}, {"effective date", 1.5},
		},
		TypeBankStatement: {
			{"statement", 2}, {"account number", 2}, {"opening balance", 3},
			{"closing balance", 3}, {"deposits", 2}, {"withdrawals", 2.5},
			{"statement period", 3}, {"beginning balance", 3}, {"ending balance", 3},
		},
		TypeIDDocument: {
			{"passport", 3.5}, {"driver license", 3.5}, {"date of birth", 3},
			{"expiration date", 2}, {"nationality", 2.5}, {"identification", 2},
			{"issued", 1}, {"sex", 1}, {"height", 1},
		},
		TypeMedical: {
			{"patient", 3}, {"diagnosis", 3}, {"prescription", 3}, {"medication", 2.5},
			{"dosage", 2.5}, {"physician", 2.5}, {"hospital", 2}, {"clinic", 2},
			{"treatment", 2}, {"mrn", 2.5},
		},
		TypeTaxDocument: {
			{"tax", 2}, {"irs", 3}, {"w-2", 3.5}, {"1099", 3.5}, {"tax year", 3},
			{"taxable income", 3}, {"withholding", 2.5}, {"refund", 1.5},
			{"social security", 1.5}, {"form 1040", 4},
		},
		TypeForm: {
			{"form", 1.5}, {"please fill", 2.5}, {"signature", 1}, {"check one", 2.5},
			{"applicant", 2}, {"application", 2}, {"date of application", 2.5},
		},
		TypeLetter: {
			{"dear", 2.5}, {"sincerely", 3}, {"regards", 2.5}, {"yours truly", 3},
			{"to whom it may concern", 3.5},
		},
		TypeReport: {
			{"executive summary", 3.5}, {"introduction", 1.5}, {"conclusion", 2},
			{"findings", 2.5}, {"methodology", 3}, {"appendix", 2}, {"abstract", 2.5},
		},
	}}
}

// Classify scores the text against every known type and returns the best
// match, its confidence and the matched keywords. Empty input yields unknown.
func (c *Classifier) Classify(text string) model.Classification {
	result := model.Classification{
		DocumentType: TypeUnknown,
		AllScores:    make(map[string]float64, len(c.keywords)),
	}
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return result
	}

	var keywordsFound []string
	var totalScore float64

	for docType, kws := range c.keywords {
		var score, maxScore float64
		for _, kw := range kws {
			maxScore += kw.weight
			if strings.Contains(lower, kw.term) {
				score += kw.weight
				keywordsFound = append(keywordsFound, kw.term)
			}
		}
		if maxScore > 0 {
			result.AllScores[docType] = score / maxScore
		}
		totalScore += result.AllScores[docType]
	}

	best := TypeUnknown
	var bestScore float64
	for docType, score := range result.AllScores {
		if score > bestScore {
			best, bestScore = docType, score
		}
	}
	if bestScore == 0 {
		return result
	}

	// Confidence blends the winner's own score with its margin over the
	// rest, so a document matching several types scores lower.
	confidence := bestScore
	if totalScore > 0 {
		confidence = 0.5*bestScore + 0.5*(bestScore/totalScore)
	}
	if confidence > 1 {
		confidence = 1
	}

	sort.Strings(keywordsFound)
	result.DocumentType = best
	result.Confidence = confidence
	result.KeywordsFound = dedupe(keywordsFound)
	return result
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	for i, s := range sorted {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
