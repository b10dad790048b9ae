package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kdange/portfolio/internal/api/sanitization"
	"github.com/kdange/portfolio/internal/config"
	"github.com/kdange/portfolio/internal/logging"

	"github.com/resend/resend-go/v2"
	"github.com/wneessen/go-mail"
)

// Envelope is a fully addressed plain-text email.
type Envelope struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Mailer delivers an envelope. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, env *Envelope) error
}

// Prober is implemented by transports that can verify their credentials
// without delivering mail.
type Prober interface {
	Probe(ctx context.Context) error
}

// NewMailer picks the transport configured by MAIL_PROVIDER.
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPMailer(cfg), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
		return NewResendMailer(cfg.ResendAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
}

// SMTPMailer submits mail over SMTP with a mandatory STARTTLS upgrade and
// PLAIN authentication. Every Send opens and closes its own connection.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, env *Envelope) error {
	msg, err := env.Message()
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send smtp message: %w", err)
	}
	return nil
}

// Probe connects, upgrades to TLS and authenticates without sending anything.
func (m *SMTPMailer) Probe(ctx context.Context) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s:%d: %w", m.host, m.port, err)
	}
	return client.Close()
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
	}
	if m.timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.timeout))
	}

	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

// Message renders the envelope as a MIME message.
func (e *Envelope) Message() (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", e.From, err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", e.To, err)
	}
	// The contact form only checks for "@" and "."; an address that does not
	// parse is still delivered, just without Reply-To.
	if e.ReplyTo != "" {
		if err := msg.ReplyTo(e.ReplyTo); err != nil {
			logging.GetGlobalLogger().Debug("Dropping unparseable Reply-To %q: %v", e.ReplyTo, err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, e.Body)
	return msg, nil
}

// ResendMailer delivers through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, env *Envelope) error {
	params := &resend.SendEmailRequest{
		From:    env.From,
		To:      []string{env.To},
		Subject: env.Subject,
		Text:    env.Body,
		ReplyTo: env.ReplyTo,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send resend message: %w", err)
	}
	return nil
}

// ContactMessage is a validated contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// BuildEnvelope addresses a submission to the site owner's own account and
// points Reply-To at the visitor.
func BuildEnvelope(account, subjectPrefix string, c ContactMessage) *Envelope {
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\n", c.Name)
	fmt.Fprintf(&body, "Email: %s\n", c.Email)
	fmt.Fprintf(&body, "Subject: %s\n\n", c.Subject)
	fmt.Fprintf(&body, "Message:\n%s\n", c.Message)

	return &Envelope{
		From:    account,
		To:      account,
		ReplyTo: sanitization.Email(c.Email),
		Subject: subjectPrefix + sanitization.HeaderValue(c.Subject),
		Body:    body.String(),
	}
}
