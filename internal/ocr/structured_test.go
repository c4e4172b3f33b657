package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const invoiceTableHTML = `<table>
<tr><td>Item</td><td>Qty</td><td>Rate</td><td>Amount</td></tr>
<tr><td>Staple Remover
Office Supplies, OFF-SU-10002885</td><td>2</td><td>$3.50</td><td>$7.00</td></tr>
<tr><td>Binder Clips</td><td>5</td><td>$1.00</td><td>$5.00</td></tr>
</table>`

func TestParseLineItems(t *testing.T) {
	items := ParseLineItems(invoiceTableHTML)

	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	assert.Equal(t, "Staple Remover", items[0].Description)
	assert.Equal(t, "OFF-SU-10002885", items[0].SKU)
	assert.Equal(t, "Office Supplies", items[0].Category)
	assert.Equal(t, "2", items[0].Quantity)
	assert.Equal(t, "$3.50", items[0].Rate)
	assert.Equal(t, "$7.00", items[0].Amount)

	assert.Equal(t, "Binder Clips", items[1].Description)
	assert.Empty(t, items[1].SKU)
}

func TestParseLineItemsSkipsBlankDescriptions(t *testing.T) {
	items := ParseLineItems(`<table>
<tr><td>Item</td><td>Amount</td></tr>
<tr><td></td><td>$1.00</td></tr>
</table>`)

	assert.Empty(t, items)
}

func TestParseLineItemsHeaderOnly(t *testing.T) {
	assert.Nil(t, ParseLineItems(`<table><tr><td>Item</td></tr></table>`))
}

func TestParseLineItemsNoTable(t *testing.T) {
	assert.Nil(t, ParseLineItems(`<p>no table here</p>`))
}

func TestStructuredProcess(t *testing.T) {
	text := `Invoice #: INV42
Bill To: Acme Corp
Ship To: 12 Main Street
Due Date: 02/01/2024
Subtotal: $12.00
Total Due: $12.00
Payment Terms: Net 30`

	got := NewStructuredProcessor().Process(text, []string{invoiceTableHTML})

	assert.Equal(t, TypeInvoice, got.DocumentType)
	assert.Greater(t, got.Confidence, 0.0)
	assert.Equal(t, LangEnglish, got.Language)
	assert.Equal(t, "INV42", got.ExtractedFields["invoice_number"])
	assert.Len(t, got.LineItems, 2)
	assert.Equal(t, text, got.Raw.Text)
	assert.Equal(t, []string{invoiceTableHTML}, got.Raw.TablesHTML)
}

func TestStructuredProcessCollectsParsedTables(t *testing.T) {
	text := "Receipt\nCashier: Dana\n" + invoiceTableHTML

	got := NewStructuredProcessor().Process(text, nil)

	assert.NotEmpty(t, got.Raw.TablesHTML)
	assert.Len(t, got.LineItems, 2)
}
