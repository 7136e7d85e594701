package email

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/imagify/imagify-api/internal/logging"
)

const otpSubject = "Your OTP for Signup"

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service delivers transactional mail over SMTP with PLAIN auth
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	send         sendFunc
}

// NewService builds a sender. fromEmail falls back to the SMTP user.
func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail string) *Service {
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		send:         smtp.SendMail,
	}
}

// SendOTPEmail mails a signup code that stays valid for ttl
func (s *Service) SendOTPEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error {
	logger := logging.GetLoggerFromContext(ctx)

	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	text := fmt.Sprintf("Your OTP is %s. It is valid for %d minutes.", code, minutes)
	html, err := renderOTPTemplate(code, minutes)
	if err != nil {
		logger.Error("failed to render otp email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	msg, err := s.buildMessage(toEmail, otpSubject, text, html)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := s.sendEmail(toEmail, msg); err != nil {
		logger.Error("failed to send otp email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("otp email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to string, msg []byte) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

// buildMessage renders a multipart/alternative message with a text and an HTML part
func (s *Service) buildMessage(to, subject, text, html string) ([]byte, error) {
	boundary, err := newBoundary()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(text + "\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(html + "\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String()), nil
}

func newBoundary() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "imagify-" + hex.EncodeToString(buf), nil
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #18181b;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .code {
            font-size: 32px;
            font-weight: bold;
            letter-spacing: 8px;
            text-align: center;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Imagify</h1>
    </div>
    <div class="content">
        <h2>Confirm your email</h2>
        <p>Use this code to finish creating your account:</p>
        <div class="code">{{.Code}}</div>
        <p>It is valid for {{.Minutes}} minutes. If you did not try to sign up, you can ignore this email.</p>
    </div>
    <div class="footer">
        <p>This is an automated message, please do not reply.</p>
    </div>
</body>
</html>
`))

func renderOTPTemplate(code string, minutes int) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: minutes})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
