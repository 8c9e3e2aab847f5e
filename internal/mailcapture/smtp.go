package mailcapture

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/emersion/go-smtp"

	"github.com/markb/galerie/internal/log"
)

type smtpBackend struct {
	mailbox *Mailbox
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{mailbox: b.mailbox}, nil
}

type smtpSession struct {
	mailbox *Mailbox
	from    string
	to      []string
}

// AuthPlain accepts anything; capture mode has no real accounts.
func (s *smtpSession) AuthPlain(username, password string) error {
	return nil
}

func (s *smtpSession) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	rawMessage, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawMessage))
	if err != nil {
		log.Warn("failed to parse email", "error", err)
		// Unparseable mail is still filed.
		return s.file("", "", "", "", rawMessage)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeRFC2047(subject); err == nil {
		subject = decoded
	}

	textBody, htmlBody := extractBodies(msg)

	for _, to := range s.to {
		if err := s.file(subject, textBody, htmlBody, to, rawMessage); err != nil {
			log.Warn("failed to store email", "error", err, "to", to)
		}
	}

	log.Info("captured email", "from", s.from, "to", s.to, "subject", subject)
	return nil
}

func (s *smtpSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *smtpSession) Logout() error {
	return nil
}

func (s *smtpSession) file(subject, textBody, htmlBody, to string, rawMessage []byte) error {
	return s.mailbox.Append(Message{
		From:     s.from,
		To:       to,
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		Raw:      rawMessage,
	})
}

func decodeRFC2047(s string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(s)
}

func extractBodies(msg *mail.Message) (textBody, htmlBody string) {
	contentType := msg.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/") {
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			return readBody(msg.Body), ""
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			mr := multipart.NewReader(msg.Body, params["boundary"])

			for {
				part, err := mr.NextPart()
				if err != nil {
					break
				}

				partContentType := part.Header.Get("Content-Type")
				body, _ := io.ReadAll(part)

				if strings.HasPrefix(partContentType, "text/plain") {
					textBody = string(body)
				} else if strings.HasPrefix(partContentType, "text/html") {
					htmlBody = string(body)
				}
			}
		}
	} else if strings.HasPrefix(contentType, "text/html") {
		htmlBody = readBody(msg.Body)
	} else {
		textBody = readBody(msg.Body)
	}

	return textBody, htmlBody
}

func readBody(r io.Reader) string {
	body, _ := io.ReadAll(r)
	return string(body)
}
