package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// Mailer delivers a single HTML message
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogMailer writes outgoing mail to the structured log instead of delivering it
type LogMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer creates a Mailer that only logs
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("mail recipient is empty")
	}
	m.logger.Info("Mail queued",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

// Message is a rendered mail ready to send
type Message struct {
	Subject string
	Body    string
}

// OrderConfirmation renders the mail sent after an order is placed
func OrderConfirmation(order *domain.Order, storeName string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order, %s!</h2>", html.EscapeString(order.ShippingAddress.FullName))
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been received.</p><ul>", html.EscapeString(order.OrderNumber))
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%s x %d: %s</li>", html.EscapeString(item.Name), item.Quantity, item.LineTotal().StringFixed(0))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Subtotal: %s<br>Shipping: %s<br>Discount: %s<br><strong>Total: %s</strong></p>",
		order.Subtotal.StringFixed(0),
		order.ShippingFee.StringFixed(0),
		order.Discount.StringFixed(0),
		order.Total.StringFixed(0),
	)

	return Message{
		Subject: fmt.Sprintf("[%s] Order confirmation %s", storeName, order.OrderNumber),
		Body:    b.String(),
	}
}

// PasswordReset renders the mail carrying a reset link
func PasswordReset(user *domain.User, storefrontURL, token string) Message {
	link := strings.TrimRight(storefrontURL, "/") + "/reset-password?token=" + token
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Use the link below to choose a new password. It expires in one hour.</p><p><a href=\"%s\">%s</a></p>",
		html.EscapeString(user.FirstName), html.EscapeString(link), html.EscapeString(link),
	)
	return Message{Subject: "Reset your password", Body: body}
}
