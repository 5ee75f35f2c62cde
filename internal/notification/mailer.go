package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/config"
	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/rs/zerolog"
)

// EmailNotifier emails the configured staff recipients when a new complaint
// arrives.
type EmailNotifier struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	recipients []string
	logger     zerolog.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	recipients := sanitizeRecipients(cfg.AlertRecipients)
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	if host == "" {
		return nil, fmt.Errorf("smtp_host is required for email notifier")
	}
	if from == "" {
		return nil, fmt.Errorf("from is required for email notifier")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &EmailNotifier{
		host:       host,
		port:       port,
		username:   strings.TrimSpace(cfg.Username),
		password:   cfg.Password,
		from:       from,
		recipients: recipients,
		logger:     logger.With().Str("notifier", "email").Logger(),
	}, nil
}

func (n *EmailNotifier) Notify(_ context.Context, complaint models.Complaint) error {
	if len(n.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[CivicDesk] New complaint %s", complaint.TrackingNumber)

	body := strings.Builder{}
	body.WriteString("A new complaint has been submitted.\n\n")
	body.WriteString(fmt.Sprintf("Tracking number: %s\n", complaint.TrackingNumber))
	body.WriteString(fmt.Sprintf("Subject: %s\n", complaint.Subject))
	body.WriteString(fmt.Sprintf("Category: %s\n", complaint.Category))
	body.WriteString(fmt.Sprintf("Priority: %s\n", complaint.Priority))
	body.WriteString(fmt.Sprintf("Submitted: %s\n", complaint.CreatedAt.Format("2006-01-02 15:04:05 MST")))

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		n.from, strings.Join(n.recipients, ","), subject)

	message := []byte(headers + body.String())
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	if err := smtp.SendMail(addr, auth, n.from, n.recipients, message); err != nil {
		return err
	}

	n.logger.Info().
		Str("complaint_id", complaint.ID).
		Str("tracking_number", complaint.TrackingNumber).
		Strs("recipients", n.recipients).
		Msg("complaint alert email sent")
	return nil
}

func (n *EmailNotifier) String() string {
	return "EmailNotifier"
}

func sanitizeRecipients(recipients []string) []string {
	var cleaned []string
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
