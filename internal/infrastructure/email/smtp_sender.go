package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// ErrAuthFailed means the SMTP server rejected our credentials.
var ErrAuthFailed = errors.New("smtp auth failed")

const verifySubject = "Verify your ChatCPE account"

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	// Insecure allows plaintext when the relay offers no STARTTLS (local
	// relays only).
	Insecure bool
}

// SMTPSender delivers verification mail through an SMTP relay. It dials per
// message; registration volume does not justify a pooled connection.
type SMTPSender struct {
	cfg SMTPConfig
	lg  zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{
		cfg: cfg,
		lg:  lg.With().Str("component", "smtp_sender").Logger(),
	}
}

func (s *SMTPSender) SendVerifyEmail(ctx context.Context, toEmail, name, url string) error {
	start := time.Now()
	err := s.sendVerify(ctx, toEmail, name, url)
	observeSend("verify", "smtp", err, time.Since(start))
	return err
}

func (s *SMTPSender) sendVerify(ctx context.Context, toEmail, name, url string) error {
	m, err := s.verifyMessage(toEmail, name, url)
	if err != nil {
		return err
	}
	return s.deliver(ctx, m)
}

func (s *SMTPSender) verifyMessage(toEmail, name, url string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(toEmail); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(verifySubject)
	m.SetDate()
	m.SetMessageID()

	greeting := greetingFor(name)
	htmlBody, err := renderVerifyHTML(greeting, url)
	if err != nil {
		return nil, err
	}
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"%s\n\nConfirm your email address by opening this link:\n\n%s\n\nIf you did not create a ChatCPE account, ignore this email.\n",
		greeting, url))
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	return m, nil
}

func (s *SMTPSender) deliver(ctx context.Context, m *mail.Msg) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	policy := mail.TLSMandatory
	if s.cfg.Insecure {
		policy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client init: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("host", s.cfg.Host).Msg("smtp send failed")
		if isAuthFailure(err) {
			return fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	s.lg.Info().Str("subject", verifySubject).Msg("smtp send ok")
	return nil
}

func greetingFor(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return "Hi " + n + ","
	}
	return "Hi,"
}

// 535 / 5.7.8 are the SMTP codes for rejected credentials.
func isAuthFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"535", "5.7.8", "authentication failed", "username and password not accepted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var verifyTmpl = template.Must(template.New("verify").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif;line-height:1.4;">
    <h2>Verify your email</h2>
    <p>{{.Greeting}} click the button below to confirm your email address.</p>
    <p>
      <a href="{{.URL}}" style="display:inline-block;padding:10px 14px;text-decoration:none;border-radius:6px;background:#f26522;color:#fff;">Verify email</a>
    </p>
    <p style="color:#555;font-size:12px;">
      If the button does not work, open this link:<br/>
      <a href="{{.URL}}">{{.URL}}</a>
    </p>
  </body>
</html>`))

func renderVerifyHTML(greeting, url string) (string, error) {
	var buf bytes.Buffer
	err := verifyTmpl.Execute(&buf, struct{ Greeting, URL string }{greeting, url})
	if err != nil {
		return "", fmt.Errorf("render verify mail: %w", err)
	}
	return buf.String(), nil
}
