package notifier

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
)

// fakeSMTPServer accepts a single connection and speaks just enough of
// the SMTP protocol for smtp.SendMail/smtp.NewClient to complete a send.
func fakeSMTPServer(t *testing.T, ln net.Listener) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	send := func(line string) {
		w.WriteString(line + "\r\n")
		w.Flush()
	}

	send("220 fake.smtp ESMTP ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			send("250-fake.smtp greets you")
			send("250 OK")
		case strings.HasPrefix(line, "MAIL FROM"):
			send("250 OK")
		case strings.HasPrefix(line, "RCPT TO"):
			send("250 OK")
		case line == "DATA":
			send("354 Start mail input")
			for {
				dataLine, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dataLine, "\r\n") == "." {
					break
				}
			}
			send("250 OK: queued")
		case line == "QUIT":
			send("221 Bye")
			return
		default:
			send("250 OK")
		}
	}
}

func TestEmailSendOverPlainSMTP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start fake smtp listener: %v", err)
	}
	defer ln.Close()
	go fakeSMTPServer(t, ln)

	addr := ln.Addr().(*net.TCPAddr)
	n := NewEmail("127.0.0.1", addr.Port, "", "", "alerts@example.com", false)

	ok, err := n.Send(context.Background(), AlertPayload{ID: "a1", Type: "activity_spike", Message: "spike!", Subreddit: "golang"},
		map[string]any{"to_addrs": []string{"ops@example.com"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}
}

func TestEmailSendTLSPathDialsTLS(t *testing.T) {
	// No TLS listener is started, so the dial itself must fail fast; this
	// confirms useTLS routes through sendOverTLS rather than smtp.SendMail,
	// whose failure mode on a refused connection looks different.
	n := NewEmail("127.0.0.1", freePort(t), "", "", "alerts@example.com", true)

	_, err := n.Send(context.Background(), AlertPayload{ID: "a1", Message: "spike!"},
		map[string]any{"to_addrs": []string{"ops@example.com"}})
	if err == nil {
		t.Fatal("expected an error when no TLS listener is present")
	}
	if !strings.Contains(err.Error(), "tls dial failed") {
		t.Errorf("expected a tls dial failure, got: %v", err)
	}
}

func TestEmailSendMissingToAddrs(t *testing.T) {
	n := NewEmail("127.0.0.1", 2525, "", "", "alerts@example.com", false)
	_, err := n.Send(context.Background(), AlertPayload{ID: "a1"}, nil)
	if err == nil {
		t.Fatal("expected an error when to_addrs metadata is missing")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
