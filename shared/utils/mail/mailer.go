package mail

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"launchpulse-backend/shared/config"
)

// Mailer sends invitation emails over SMTP. It implements rbac.Mailer.
type Mailer struct {
	config *config.Config
}

// NewMailer creates a mailer from the service configuration
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{config: cfg}
}

// SendInvitation sends the invitation notification for an organization
// invite. Errors are returned for the caller to log; invitations must not
// fail because mail did.
func (m *Mailer) SendInvitation(email, organizationName, roleName string) error {
	subject := fmt.Sprintf("You have been invited to %s", organizationName)
	body := fmt.Sprintf(
		"You have been invited to join %s as %s.\r\n\r\nSign in at %s to accept the invitation.\r\n",
		organizationName, roleName, m.config.FrontendURL,
	)
	return m.send([]string{email}, subject, body)
}

func (m *Mailer) send(to []string, subject, body string) error {
	host := m.config.SMTPHost
	port := m.config.SMTPPort
	username := m.config.SMTPUsername
	password := m.config.SMTPPassword
	from := m.config.EmailFrom

	if host == "" || username == "" || password == "" {
		return fmt.Errorf("SMTP configuration is incomplete")
	}

	message := m.buildMessage(to, subject, body)
	auth := smtp.PlainAuth("", username, password, host)
	addr := fmt.Sprintf("%s:%s", host, port)

	// Port 465 uses implicit TLS, other ports plain SMTP unless forced
	if port == "465" || m.config.SMTPUseTLS {
		return m.sendWithTLS(addr, auth, from, to, []byte(message))
	}

	err := smtp.SendMail(addr, auth, from, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email to %v: %v", to, err)
	}
	return err
}

func (m *Mailer) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return err
	}
	if err = client.Mail(from); err != nil {
		return err
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = w.Write(msg)
	return err
}

func (m *Mailer) buildMessage(to []string, subject, body string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.config.EmailFromName, m.config.EmailFrom))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}
