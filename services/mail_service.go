package services

import (
	"errors"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/briankorir/cargotracker-api/config"
)

// MailService sends notification emails to stakeholders. Subject, body,
// sender and at least one recipient are all required.
type MailService interface {
	Send(subject, body, from string, to []string) error
}

// SMTPMailService implements MailService over an SMTP relay
type SMTPMailService struct {
	dialer *gomail.Dialer
}

var mailServiceInstance MailService

// InitMailService initializes the mail service with an SMTP backend
func InitMailService(cfg *config.Config) MailService {
	mailServiceInstance = &SMTPMailService{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
	return mailServiceInstance
}

// GetMailService returns the initialized mail service instance
func GetMailService() MailService {
	return mailServiceInstance
}

// SetMailService sets the mail service instance (primarily for testing)
func SetMailService(service MailService) {
	mailServiceInstance = service
}

func validateMail(subject, body, from string, to []string) error {
	if subject == "" {
		return errors.New("subject cannot be empty")
	}
	if body == "" {
		return errors.New("message cannot be empty")
	}
	if from == "" {
		return errors.New("sender cannot be empty")
	}
	if len(to) == 0 {
		return errors.New("recipients cannot be empty")
	}
	return nil
}

// Send delivers a plain-text email through the configured SMTP relay
func (s *SMTPMailService) Send(subject, body, from string, to []string) error {
	if err := validateMail(subject, body, from, to); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return s.dialer.DialAndSend(m)
}

// SendAsync dispatches an email without blocking the caller. Delivery is
// best-effort: failures are logged and never surfaced to the user, and a
// failed send does not roll back the mutation that triggered it.
func SendAsync(subject, body, from string, to []string) {
	service := GetMailService()
	if service == nil {
		log.Printf("Mail service not initialized, dropping email %q", subject)
		return
	}

	go func() {
		if err := service.Send(subject, body, from, to); err != nil {
			log.Printf("Failed to send email %q: %v", subject, err)
		}
	}()
}
