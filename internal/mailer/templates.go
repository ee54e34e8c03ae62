package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var matchUpdateTmpl = template.Must(template.New("match_update").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">{{.Subject}}</h2>
  <p>{{.Message}}</p>
  <p style="color: #666; font-size: 12px; margin-top: 30px;">
    You receive this email because you take part in match {{.MatchID}} on YourLeague.
  </p>
</div>
`))

var cartTmpl = template.Must(template.New("cart").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Item Added to Cart!</h2>
  <p>Hi there,</p>
  <p>The following item has been added to your shopping cart:</p>
  <div style="background-color: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">{{.ProductName}}</h3>
    <p><strong>Price:</strong> ${{.Price}}</p>
    <p><strong>Quantity:</strong> {{.Quantity}}</p>
  </div>
  <p>Ready to checkout? Head back to the app to complete your purchase!</p>
  <p style="color: #666; font-size: 12px; margin-top: 30px;">
    This is an automated message from YourLeague Shop.
  </p>
</div>
`))

// CartSubject is the subject line of cart confirmation emails.
const CartSubject = "🛒 Item Added to Your Cart - YourLeague"

// MatchUpdate renders the HTML body of a match notification.
func MatchUpdate(matchID, subject, message string) (string, error) {
	var buf bytes.Buffer
	err := matchUpdateTmpl.Execute(&buf, struct {
		MatchID, Subject, Message string
	}{matchID, subject, message})
	return buf.String(), err
}

// CartItem is the product a user just added to the shop cart.
type CartItem struct {
	ProductName string
	Price       float64
	Quantity    int
}

// CartConfirmation renders the HTML body of a cart confirmation.
func CartConfirmation(item CartItem) (string, error) {
	var buf bytes.Buffer
	err := cartTmpl.Execute(&buf, struct {
		ProductName string
		Price       string
		Quantity    int
	}{item.ProductName, fmt.Sprintf("%.2f", item.Price), item.Quantity})
	return buf.String(), err
}
