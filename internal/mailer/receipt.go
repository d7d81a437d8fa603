package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/pcgearph/storefront/internal/orders"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; border: 1px solid #eee; padding: 20px;">
    <h2 style="color: #0d6efd;">Thank you for your order!</h2>
    <p>Hi {{.FirstName}},</p>
    <p>We received your order {{.DisplayID}} and are processing it. Here are the details:</p>

    <h3 style="background: #f8f9fa; padding: 10px;">Order Summary</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <thead>
        <tr style="background: #eee;">
          <th style="padding: 8px; text-align: left;">Product</th>
          <th style="padding: 8px; text-align: center;">Qty</th>
          <th style="padding: 8px; text-align: right;">Price</th>
          <th style="padding: 8px; text-align: right;">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td style="padding: 8px; border-bottom: 1px solid #ddd;">{{.Name}}</td>
          <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: center;">{{.Qty}}</td>
          <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: right;">&#8369;{{.Price}}</td>
          <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: right;">&#8369;{{.Subtotal}}</td>
        </tr>
        {{end}}
      </tbody>
      <tfoot>
        <tr>
          <td colspan="3" style="padding: 8px; text-align: right; font-weight: bold;">Shipping ({{.Courier}}):</td>
          <td style="padding: 8px; text-align: right;">&#8369;{{.ShippingFee}}</td>
        </tr>
        <tr>
          <td colspan="3" style="padding: 8px; text-align: right; font-weight: bold; font-size: 1.1em;">Grand Total:</td>
          <td style="padding: 8px; text-align: right; font-weight: bold; font-size: 1.1em; color: #0d6efd;">&#8369;{{.Total}}</td>
        </tr>
      </tfoot>
    </table>

    <div style="margin-top: 20px;">
      <p><strong>Shipping Address:</strong><br>
      {{.AddressLine}}<br>
      {{.CityLine}}</p>

      <p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>
    </div>

    <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
    <p style="font-size: 0.9em; color: #777;">
      If you have any questions, please reply to this email or visit our support page.
    </p>
  </div>
</body>
</html>`))

type receiptRow struct {
	Name     string
	Qty      int
	Price    string
	Subtotal string
}

type receiptData struct {
	FirstName     string
	DisplayID     string
	Items         []receiptRow
	Courier       string
	ShippingFee   string
	Total         string
	AddressLine   string
	CityLine      string
	PaymentMethod string
}

// BuildReceipt renders the confirmation email for a placed order.
func BuildReceipt(p orders.OrderPlacedPayload) (subject, html string, err error) {
	data := receiptData{
		FirstName:     p.Customer.FirstName,
		DisplayID:     p.DisplayID,
		Courier:       p.Courier,
		ShippingFee:   p.ShippingFee.StringFixed(2),
		Total:         p.Total.StringFixed(2),
		AddressLine:   p.Shipping.Address + ", " + p.Shipping.Barangay,
		CityLine:      fmt.Sprintf("%s, %s %s", p.Shipping.City, p.Shipping.Province, p.Shipping.PostalCode),
		PaymentMethod: strings.ToUpper(p.PaymentMethod),
	}
	for _, it := range p.Items {
		data.Items = append(data.Items, receiptRow{
			Name:     it.Name,
			Qty:      it.Qty,
			Price:    it.Price.StringFixed(2),
			Subtotal: it.Subtotal.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Order Confirmation " + p.DisplayID, buf.String(), nil
}
