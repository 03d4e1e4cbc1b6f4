package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"
)

// SMTPConfig holds the relay connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Secure   string // "tls" (STARTTLS), "ssl" (implicit TLS) or "none"
}

// SMTPDispatcher sends messages through an SMTP relay. One connection per
// send, single attempt, no retries: a transport failure is terminal for the
// request and the caller may retry the whole submission.
type SMTPDispatcher struct {
	config  SMTPConfig
	timeout time.Duration
}

// NewSMTPDispatcher creates a Dispatcher for the given relay.
func NewSMTPDispatcher(config SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{
		config:  config,
		timeout: 10 * time.Second,
	}
}

// Send transmits the message or fails with a transport error.
func (d *SMTPDispatcher) Send(msg *Message) error {
	addr := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)

	conn, err := net.DialTimeout("tcp", addr, d.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	conn.SetDeadline(time.Now().Add(d.timeout))

	if d.config.Secure == "ssl" {
		conn = tls.Client(conn, &tls.Config{ServerName: d.config.Host})
	}

	client, err := smtp.NewClient(conn, d.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP handshake failed: %w", err)
	}
	defer client.Close()

	if d.config.Secure == "tls" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: d.config.Host}); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	if d.config.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("SMTP authentication failed: %w", err)
			}
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := w.Write(buildRaw(msg)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish email body: %w", err)
	}

	return client.Quit()
}

// buildRaw assembles a multipart/alternative MIME message with plain-text
// and HTML parts.
func buildRaw(msg *Message) []byte {
	const boundary = "smail-alt-boundary"

	var buf bytes.Buffer
	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	writeHeader("From", formatAddress(msg.FromName, msg.From))
	writeHeader("To", msg.To)
	if msg.ReplyTo != "" {
		writeHeader("Reply-To", formatAddress(msg.ReplyToName, msg.ReplyTo))
	}
	writeHeader("Subject", mime.QEncoding.Encode("UTF-8", msg.Subject))
	writeHeader("Date", time.Now().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	buf.WriteString("\r\n")

	writePart := func(contentType, body string) {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		buf.WriteString(body)
		buf.WriteString("\r\n")
	}

	writePart("text/plain", msg.TextBody)
	writePart("text/html", msg.HTMLBody)
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), addr)
}
