package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mwalkowiak/flatwatch/internal/config"
	"github.com/mwalkowiak/flatwatch/internal/model"
)

// EmailNotifier sends an HTML digest of new listings over SMTP.
type EmailNotifier struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an email channel from config.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail}
}

func (e *EmailNotifier) Name() string { return "email" }

// NotifyNew sends one digest message listing every new offer.
func (e *EmailNotifier) NotifyNew(_ context.Context, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	if e.cfg.Sender == "" || len(e.cfg.Recipients) == 0 {
		return eris.New("email: sender or recipients not configured")
	}

	subject := fmt.Sprintf("%d nowych mieszkań we Wrocławiu", len(listings))
	msg := buildMessage(e.cfg.Sender, e.cfg.Recipients, subject, digestHTML(listings))

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	auth := smtp.PlainAuth("", e.cfg.Sender, e.cfg.Password, e.cfg.Host)
	if err := e.send(addr, auth, e.cfg.Sender, e.cfg.Recipients, msg); err != nil {
		return eris.Wrap(err, "email: send")
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func digestHTML(listings []model.Listing) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Znaleziono %d nowych ofert we Wrocławiu</h2>", len(listings))
	for _, l := range listings {
		b.WriteString(`<div style="border:1px solid #ddd;margin:10px 0;padding:15px">`)
		fmt.Fprintf(&b, "<h3>%s</h3>", l.Title)
		fmt.Fprintf(&b, "<p><strong>%d zł</strong></p>", l.Price)
		if l.Area.Known {
			fmt.Fprintf(&b, "<p>%.1f m² &bull; %.0f zł/m²</p>", l.Area.Value, l.PricePerM2)
		}
		fmt.Fprintf(&b, "<p>%s &bull; %s</p>", l.Location, strings.ToUpper(string(l.Portal)))
		fmt.Fprintf(&b, `<p><a href="%s">Zobacz ogłoszenie</a></p>`, l.URL)
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
