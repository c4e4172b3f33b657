package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyInvoice(t *testing.T) {
	text := `INVOICE
Invoice Number: INV-2024-001
Bill To: Acme Corp
Due Date: 2024-02-01
Payment Terms: Net 30
Subtotal: $100.00
Total Due: $110.00`

	got := NewClassifier().Classify(text)

	assert.Equal(t, TypeInvoice, got.DocumentType)
	assert.Greater(t, got.Confidence, 0.3)
	assert.Contains(t, got.KeywordsFound, "invoice number")
	assert.Contains(t, got.KeywordsFound, "net 30")
	assert.Greater(t, got.AllScores[TypeInvoice], got.AllScores[TypeReceipt])
}

func TestClassifyReceipt(t *testing.T) {
	text := "RECEIPT\nCashier: Dana\nPaid by credit card\nThank you for shopping with us"

	got := NewClassifier().Classify(text)

	assert.Equal(t, TypeReceipt, got.DocumentType)
	assert.NotEmpty(t, got.KeywordsFound)
}

func TestClassifyEmptyText(t *testing.T) {
	got := NewClassifier().Classify("   \n\t ")

	assert.Equal(t, TypeUnknown, got.DocumentType)
	assert.Zero(t, got.Confidence)
	assert.Empty(t, got.KeywordsFound)
}

func TestClassifyNoMatches(t *testing.T) {
	got := NewClassifier().Classify("zzz qqq xyzzy plugh")

	assert.Equal(t, TypeUnknown, got.DocumentType)
	assert.Zero(t, got.Confidence)
}

func TestClassifyKeywordsDeduped(t *testing.T) {
	got := NewClassifier().Classify("invoice invoice invoice number")

	seen := map[string]int{}
	for _, kw := range got.KeywordsFound {
		seen[kw]++
	}
	for kw, n := range seen {
		assert.Equalf(t, 1, n, "keyword %q listed %d times", kw, n)
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	text := `agreement contract whereas hereby parties terms and conditions
covenant termination in witness whereof effective date`

	got := NewClassifier().Classify(text)

	assert.Equal(t, TypeContract, got.DocumentType)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}
