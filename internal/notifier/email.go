package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"simwatch/internal/models"
)

// EmailConfig holds the SMTP submission settings.
type EmailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

// EmailNotifier sends one multipart (plain + HTML) message per purchase
// batch over authenticated SMTP with STARTTLS.
type EmailNotifier struct {
	cfg  EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail creates an email notifier.
func NewEmail(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail}
}

// Notify mails the purchase summary to the configured recipient.
func (n *EmailNotifier) Notify(_ context.Context, batch []models.PurchasedNumber) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)
	msg := n.buildMessage(batch)
	if err := n.send(addr, auth, n.cfg.Sender, []string{n.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("send mail to %s via %s: %w", n.cfg.Recipient, addr, err)
	}
	return nil
}

const mimeBoundary = "simwatch-alt-boundary"

func (n *EmailNotifier) buildMessage(batch []models.PurchasedNumber) []byte {
	first := batch[0]
	subject := fmt.Sprintf("Purchased %d %s number(s) in country %d", len(batch), first.Service, first.Country)
	now := time.Now().Format("2006-01-02 15:04:05")

	var text strings.Builder
	fmt.Fprintf(&text, "Purchased %d number(s) for %s (country %d) at %s\r\n\r\n", len(batch), first.Service, first.Country, now)
	for i, pn := range batch {
		fmt.Fprintf(&text, "%d. %s\r\n", i+1, pn.Number)
		fmt.Fprintf(&text, "   Transaction ID: %s\r\n", pn.TransactionID)
		fmt.Fprintf(&text, "   Price: $%.2f\r\n\r\n", pn.Price)
	}
	text.WriteString("Visit https://onlinesim.io to manage the numbers and wait for SMS codes.\r\n")

	var html strings.Builder
	fmt.Fprintf(&html, "<html><body><h2>Purchased %d %s number(s)</h2>", len(batch), first.Service)
	fmt.Fprintf(&html, "<p>Country %d &middot; %s</p>", first.Country, now)
	html.WriteString("<table border=\"1\" cellpadding=\"6\" style=\"border-collapse:collapse\">")
	html.WriteString("<tr><th>#</th><th>Number</th><th>Transaction ID</th><th>Price</th></tr>")
	for i, pn := range batch {
		fmt.Fprintf(&html, "<tr><td>%d</td><td><b>%s</b></td><td>%s</td><td>$%.2f</td></tr>", i+1, pn.Number, pn.TransactionID, pn.Price)
	}
	html.WriteString("</table>")
	html.WriteString("<p><a href=\"https://onlinesim.io\">Manage numbers</a></p></body></html>")

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", n.cfg.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&msg, "--%s\r\n", mimeBoundary)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(text.String())
	fmt.Fprintf(&msg, "\r\n--%s\r\n", mimeBoundary)
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(html.String())
	fmt.Fprintf(&msg, "\r\n--%s--\r\n", mimeBoundary)

	return []byte(msg.String())
}
