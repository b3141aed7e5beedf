package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/onnwee/reddit-insight/internal/apierr"
)

// EmailNotifier sends alert notifications over SMTP as a multipart
// plain-text/HTML message.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	useTLS   bool
}

func NewEmail(host string, port int, username, password, from string, useTLS bool) *EmailNotifier {
	return &EmailNotifier{host: host, port: port, username: username, password: password, from: from, useTLS: useTLS}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Send(_ context.Context, alert AlertPayload, metadata map[string]any) (bool, error) {
	toAddrs, ok := metadata["to_addrs"].([]string)
	if !ok || len(toAddrs) == 0 {
		return false, apierr.NewValidationFailed("email notifier requires non-empty to_addrs metadata")
	}

	subject := fmt.Sprintf("[Reddit Insight] %s: %s", alert.Type, truncateMessage(alert.Message, 50))
	boundary := "reddit-insight-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(toAddrs, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(formatPlainBody(alert))
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(formatHTMLBody(alert))
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	var sendErr error
	if e.useTLS {
		sendErr = e.sendOverTLS(addr, auth, toAddrs, b.String())
	} else {
		sendErr = smtp.SendMail(addr, auth, e.from, toAddrs, []byte(b.String()))
	}
	if sendErr != nil {
		return false, apierr.NewAlertNotifierFailed("smtp send failed: " + sendErr.Error())
	}
	return true, nil
}

// sendOverTLS connects with an implicit TLS handshake before any SMTP
// command is sent, for servers that require TLS from the first byte
// rather than negotiating STARTTLS over a plaintext connection.
func (e *EmailNotifier) sendOverTLS(addr string, auth smtp.Auth, toAddrs []string, body string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.host})
	if err != nil {
		return fmt.Errorf("tls dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, to := range toAddrs {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("smtp RCPT TO failed for %s: %w", to, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return fmt.Errorf("smtp message write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp message close failed: %w", err)
	}
	return client.Quit()
}

func formatPlainBody(alert AlertPayload) string {
	return fmt.Sprintf("Alert: %s\nSubreddit: r/%s\n\n%s", alert.Type, alert.Subreddit, alert.Message)
}

func formatHTMLBody(alert AlertPayload) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif;border:1px solid #ddd;padding:16px;border-radius:8px">
  <h3 style="margin-top:0">%s</h3>
  <p><strong>Subreddit:</strong> r/%s</p>
  <p>%s</p>
</div>`, alert.Type, alert.Subreddit, alert.Message)
}

func truncateMessage(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
