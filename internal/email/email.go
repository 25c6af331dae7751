package email

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/yatube/backend/internal/logger"
	"go.uber.org/zap"
)

// Message is a single outbound email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers outbound email
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordResetMessage builds the mail that carries a reset link
func PasswordResetMessage(to, username, resetURL string) Message {
	subject := "Password reset on Yatube"

	text := fmt.Sprintf(`Hi %s,

You're receiving this email because you requested a password reset for your account on Yatube.

Please go to the following page and choose a new password:

%s

The link expires in one hour. If you didn't request a reset, you can ignore this email.

The Yatube team
`, username, resetURL)

	escapedURL := html.EscapeString(resetURL)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>You're receiving this email because you requested a password reset for your account on Yatube.</p>
	<p><a href="%s">Choose a new password</a></p>
	<p style="word-break: break-all; color: #666;">%s</p>
	<p>The link expires in one hour. If you didn't request a reset, you can ignore this email.</p>
</body>
</html>
`, html.EscapeString(username), escapedURL, escapedURL)

	return Message{To: to, Subject: subject, Text: text, HTML: body}
}

// LogSender writes mail to the log instead of delivering it and keeps an
// in-memory outbox, for development and tests
type LogSender struct {
	mu     sync.Mutex
	outbox []Message
}

// NewLogSender creates a LogSender with an empty outbox
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send records the message
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	s.outbox = append(s.outbox, msg)
	s.mu.Unlock()

	logger.Log.Info("Email not delivered (log backend)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// Outbox returns a copy of every message sent so far
func (s *LogSender) Outbox() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.outbox))
	copy(out, s.outbox)
	return out
}
