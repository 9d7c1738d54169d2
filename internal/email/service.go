// Package email sends operational mail to administrators. Email is not a
// notification channel; recipients and suppliers are reached over push and
// WhatsApp only.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/eventops/backoffice-api/pkg/logger"
)

type Service interface {
	SendScanDigest(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewSMTPService(cfg SMTPConfig, logger *logger.Logger) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

func (s *smtpService) SendScanDigest(_ context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send digest mail: %w", err)
	}
	s.logger.Info("scan digest mailed", "recipients", len(to))
	return nil
}
