// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
)

// Service renders order invoices
type Service struct {
	company  config.CompanyConfig
	currency string
	tmpl     *template.Template
	now      func() time.Time
	convert  func(html []byte) ([]byte, error)
}

// NewService creates a new PDF service
func NewService(company config.CompanyConfig, currency string) *Service {
	return &Service{
		company:  company,
		currency: currency,
		tmpl:     template.Must(template.New("invoice").Parse(invoiceTemplate)),
		now:      time.Now,
		convert:  wkhtmltopdfConvert,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string               `json:"invoice_number"`
	InvoiceDate   string               `json:"invoice_date"`
	DueDate       string               `json:"due_date"`
	Currency      string               `json:"currency"`
	Order         *order.View          `json:"order"`
	Company       config.CompanyConfig `json:"company"`
}

// BuildInvoiceData assembles the invoice for an order view
func (s *Service) BuildInvoiceData(view *order.View) InvoiceData {
	now := s.now()
	return InvoiceData{
		InvoiceNumber: fmt.Sprintf("INV-%s", view.OrderNumber),
		InvoiceDate:   now.Format("January 2, 2006"),
		DueDate:       now.AddDate(0, 0, 30).Format("January 2, 2006"),
		Currency:      s.currency,
		Order:         view,
		Company:       s.company,
	}
}

// GenerateInvoice renders the invoice for an order and converts it to PDF
func (s *Service) GenerateInvoice(view *order.View) ([]byte, error) {
	html, err := s.RenderHTML(s.BuildInvoiceData(view))
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}
	return s.convert(html)
}

// RenderHTML executes the invoice template
func (s *Service) RenderHTML(data InvoiceData) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func wkhtmltopdfConvert(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(10)
	pdfg.MarginBottom.Set(15)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterCenter.Set("[page] / [topage]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

// invoiceTemplate uses table layout only; wkhtmltopdf's WebKit has no flexbox
const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.InvoiceNumber}}</title>
<style>
  body { font: 11pt Helvetica, Arial, sans-serif; color: #222; margin: 24px; }
  table { width: 100%; border-collapse: collapse; }
  td, th { padding: 6px 8px; vertical-align: top; }
  .head td { border-bottom: 3px solid #0f766e; padding-bottom: 16px; }
  .brand { font-size: 20pt; font-weight: bold; color: #0f766e; }
  .muted { color: #6b7280; font-size: 9pt; }
  .meta td.k { color: #6b7280; width: 120px; }
  .lines { margin-top: 24px; }
  .lines th { background: #f0fdfa; border-bottom: 1px solid #99f6e4; text-align: left; }
  .lines td { border-bottom: 1px solid #e5e7eb; }
  .num { text-align: right; white-space: nowrap; }
  .grand td { border-top: 2px solid #222; font-size: 13pt; font-weight: bold; }
  .badge { padding: 2px 6px; font-size: 8pt; font-weight: bold; }
  .status-paid { background: #ccfbf1; color: #115e59; }
  .status-open { background: #fef9c3; color: #854d0e; }
  .status-void { background: #fee2e2; color: #991b1b; }
  .foot { margin-top: 40px; text-align: center; }
</style>
</head>
<body>
<table class="head">
  <tr>
    <td>
      <div class="brand">{{.Company.Name}}</div>
      <div class="muted">{{.Company.Address}}</div>
      <div class="muted">{{.Company.Email}}{{with .Company.Phone}} &middot; {{.}}{{end}}{{with .Company.Website}} &middot; {{.}}{{end}}</div>
    </td>
    <td class="num">
      <div class="brand">Invoice</div>
      <div>{{.InvoiceNumber}}</div>
    </td>
  </tr>
</table>

<table class="meta">
  <tr><td class="k">Order</td><td>{{.Order.OrderNumber}}</td><td class="k">Issued</td><td>{{.InvoiceDate}}</td></tr>
  <tr><td class="k">Ordered on</td><td>{{.Order.CreatedAt.Format "2006-01-02"}}</td><td class="k">Due</td><td>{{.DueDate}}</td></tr>
  <tr>
    <td class="k">Payment</td><td>{{.Order.PaymentMethod}}</td>
    <td class="k">Status</td>
    <td><span class="badge {{if eq .Order.Status "CONFIRMED"}}status-paid{{else if eq .Order.Status "CANCELLED"}}status-void{{else}}status-open{{end}}">{{.Order.Status}}</span></td>
  </tr>
  <tr>
    <td class="k">Ship to</td>
    <td colspan="3">{{.Order.ShippingAddress}}{{with .Order.ShippingCity}}, {{.}}{{end}}{{with .Order.ShippingPostalCode}} {{.}}{{end}}</td>
  </tr>
</table>

<table class="lines">
  <tr><th>Product</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
  {{range .Order.Items}}
  <tr>
    <td>{{.ProductName}}</td>
    <td class="num">{{.Quantity}}</td>
    <td class="num">{{.Price.StringFixed 2}}</td>
    <td class="num">{{.Subtotal.StringFixed 2}}</td>
  </tr>
  {{end}}
  <tr class="grand">
    <td colspan="3" class="num">Total ({{.Order.TotalItems}} items)</td>
    <td class="num">{{.Order.TotalAmount.StringFixed 2}} {{.Currency}}</td>
  </tr>
</table>

<div class="foot muted">Questions about this invoice? Write to {{.Company.Email}}.</div>
</body>
</html>
`
