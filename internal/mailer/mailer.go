package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"pam-backend/internal/models"
)

// Provider is an interface for sending notification emails.
type Provider interface {
	Send(to []string, cc []string, subject, htmlBody string) error
	SetLogRepository(repo EmailLogRepo)
}

// EmailLogRepo interface for logging
type EmailLogRepo interface {
	Create(ctx context.Context, log *models.EmailLog) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements Provider over plain SMTP with AUTH.
type SMTPMailer struct {
	Config  *SMTPConfig
	LogRepo EmailLogRepo
}

func NewSMTPMailer(config *SMTPConfig) *SMTPMailer {
	return &SMTPMailer{Config: config}
}

// SetLogRepository sets the email log repository
func (m *SMTPMailer) SetLogRepository(repo EmailLogRepo) {
	m.LogRepo = repo
}

// Send delivers an HTML email and records the attempt in the send log.
func (m *SMTPMailer) Send(to []string, cc []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.Config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&msg, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.Config.Host, m.Config.Port)
	var auth smtp.Auth
	if m.Config.Username != "" {
		auth = smtp.PlainAuth("", m.Config.Username, m.Config.Password, m.Config.Host)
	}
	rcpts := append(append([]string{}, to...), cc...)

	err := smtp.SendMail(addr, auth, m.Config.From, rcpts, []byte(msg.String()))
	m.log(to, cc, subject, err)
	return err
}

func (m *SMTPMailer) log(to, cc []string, subject string, sendErr error) {
	if m.LogRepo == nil {
		return
	}
	entry := &models.EmailLog{
		ToAddrs:   strings.Join(to, ","),
		CcAddrs:   strings.Join(cc, ","),
		Subject:   subject,
		Status:    models.EmailStatusSent,
		CreatedAt: time.Now(),
	}
	if sendErr != nil {
		entry.Status = models.EmailStatusFailed
		entry.Error = sendErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Logging failures must not mask the send result.
	_ = m.LogRepo.Create(ctx, entry)
}

// MockMailer implements Provider for development and tests.
type MockMailer struct {
	mu      sync.Mutex
	Sent    []MockMessage
	LogRepo EmailLogRepo
	FailAll bool
}

type MockMessage struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SetLogRepository(repo EmailLogRepo) {
	m.LogRepo = repo
}

func (m *MockMailer) Send(to []string, cc []string, subject, htmlBody string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, MockMessage{To: to, Cc: cc, Subject: subject, Body: htmlBody})
	m.mu.Unlock()
	if m.FailAll {
		return fmt.Errorf("mailer: mock failure")
	}
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockMailer) Messages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}
