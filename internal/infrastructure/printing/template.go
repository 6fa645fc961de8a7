package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/shopspring/decimal"
)

// invoiceTemplate is the built-in monthly invoice layout. It is intentionally
// self-contained (inline CSS, no external assets) so Chrome can render it from
// a document string without network access.
const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Noto Sans", sans-serif; font-size: 12px; color: #222; margin: 24px; }
  h1 { font-size: 18px; margin-bottom: 0; }
  .muted { color: #777; }
  .header { display: flex; justify-content: space-between; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
  th { background: #f4f4f4; }
  td.amount, th.amount { text-align: right; }
  .totals { margin-top: 12px; width: 40%; margin-left: auto; }
  .totals td { border: none; padding: 3px 8px; }
  .totals .grand { font-weight: bold; border-top: 1px solid #222; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <h1>Invoice {{.Invoice.InvoiceNumber}}</h1>
      <div class="muted">Billing period {{formatDate .Invoice.PeriodStart}} to {{formatDate .Invoice.PeriodEnd}}</div>
      <div class="muted">Due {{formatDate .Invoice.DueDate}}</div>
    </div>
    <div>
      <strong>{{.Customer.Name}}</strong><br>
      {{.Customer.Code}}<br>
      {{.Customer.Address}}
    </div>
  </div>

  <table>
    <thead>
      <tr>
        <th>Date</th>
        <th>Item</th>
        <th class="amount">Qty</th>
        <th class="amount">Rate</th>
        <th class="amount">Amount</th>
      </tr>
    </thead>
    <tbody>
      {{range .Sales}}{{$date := .SaleDate}}{{range .Items}}
      <tr>
        <td>{{formatDate $date}}</td>
        <td>{{.ProductName}}</td>
        <td class="amount">{{formatQty .Quantity}}</td>
        <td class="amount">{{formatMoney .Rate}}</td>
        <td class="amount">{{formatMoney .Amount}}</td>
      </tr>
      {{end}}{{end}}
    </tbody>
  </table>

  <table class="totals">
    <tr><td>Total</td><td class="amount">{{formatMoney .Invoice.TotalAmount}}</td></tr>
    <tr><td>Paid</td><td class="amount">{{formatMoney .Invoice.AmountPaid}}</td></tr>
    <tr class="grand"><td>Balance due</td><td class="amount">{{formatMoney .Invoice.Outstanding}}</td></tr>
  </table>
</body>
</html>`

// TemplateEngine renders invoice documents to HTML.
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the built-in invoice template.
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
		"formatQty":   formatQty,
	}).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderHTML renders an invoice document to a complete HTML page.
func (e *TemplateEngine) RenderHTML(doc *appbilling.InvoiceDocument) (string, error) {
	if doc == nil || doc.Invoice == nil {
		return "", fmt.Errorf("invoice document is incomplete")
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}
	return buf.String(), nil
}

func formatMoney(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

func formatQty(d decimal.Decimal) string {
	// Trim trailing zeros so "2.000" prints as "2".
	return d.String()
}
