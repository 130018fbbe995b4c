package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host       string
	port       int
	username   string
	password   string
	fromName   string
	fromEmail  string
	appBaseURL string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName, appBaseURL string) *SMTPSender {
	return &SMTPSender{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		fromName:   fromName,
		fromEmail:  fromEmail,
		appBaseURL: appBaseURL,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, name, tempPassword, projectTitle string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:    "Welcome to your client portal",
			Heading:  "Your account is ready",
			CTALabel: "Open your portal",
			CTAURL:   s.appBaseURL + "/login",
		},
		Name:         name,
		TempPassword: tempPassword,
		ProjectTitle: projectTitle,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectWelcome, content)
}

func (s *SMTPSender) SendPaymentReminderEmail(ctx context.Context, toEmail, name, projectTitle string, amount float64, dueDate *time.Time) error {
	due := ""
	if dueDate != nil {
		due = dueDate.Format("January 2, 2006")
	}
	content, err := renderEmailTemplate("payment_reminder.html", paymentReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Payment reminder",
			Heading: "Payment reminder",
		},
		Name:            name,
		ProjectTitle:    projectTitle,
		AmountFormatted: formatCurrencyUSD(amount),
		DueDate:         due,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectPaymentReminderFmt, projectTitle), content)
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = NoopSender{}
)
