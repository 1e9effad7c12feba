package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSecurityAlert(toEmail, username, event, ipAddress string) error
	SendWelcome(toEmail, username string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendSecurityAlert notifies a user about a suspicious auth event, e.g. a
// renewal secret being replayed after rotation.
func (s *emailService) SendSecurityAlert(toEmail, username, event, ipAddress string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Security Alert on Your Aidly Account")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Security Alert</h2>
			<p>Hi %s,</p>
			<p>We detected the following event on your account:</p>
			<h3 style="color: #D32F2F;">%s</h3>
			<p>Source IP: %s</p>
			<p>All active sessions on your account have been signed out as a precaution.</p>
			<p>If this was you, simply log in again. If not, please change your password immediately.</p>
		</div>
	`, username, event, ipAddress)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send security alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Security alert sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendWelcome(toEmail, username string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to Aidly!")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to Aidly, %s!</h2>
			<p>Your account is ready. We created a default workspace and assistant bot for you.</p>
			<p>Generate a widget token from your dashboard to embed the chat widget on your site.</p>
		</div>
	`, username)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send welcome mail to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
