package mailcapture

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/log"
)

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"message"`
}

// Relay forwards contact-form submissions to the gallery's contact
// address over SMTP. In capture mode the configured host is the local
// capture server, so submissions land in the mailbox.
type Relay struct {
	cfg config.MailConfig
}

func NewRelay(cfg config.MailConfig) *Relay {
	return &Relay{cfg: cfg}
}

// Send delivers a contact message to the given recipient address.
func (r *Relay) Send(to string, msg ContactMessage) error {
	addr := fmt.Sprintf("%s:%d", r.cfg.SMTPHost, r.cfg.SMTPPort)

	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to reach mail server at %s: %w", addr, err)
	}
	defer c.Close()

	if r.cfg.SMTPUser != "" {
		auth := sasl.NewPlainClient("", r.cfg.SMTPUser, r.cfg.SMTPPass)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("mail server authentication failed: %w", err)
		}
	}

	body := r.render(to, msg)
	if err := c.SendMail(r.cfg.FromAddr, []string{to}, strings.NewReader(body)); err != nil {
		return fmt.Errorf("failed to send contact message: %w", err)
	}

	log.Info("contact message relayed", "to", to)
	return nil
}

// render builds the RFC 5322 message. The visitor's address goes in
// Reply-To so the envelope sender stays ours.
func (r *Relay) render(to string, msg ContactMessage) string {
	subject := msg.Subject
	if subject == "" {
		subject = fmt.Sprintf("Nouveau message de %s", msg.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", r.cfg.FromAddr)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Nom: %s\r\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\r\n", msg.Email)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return b.String()
}
