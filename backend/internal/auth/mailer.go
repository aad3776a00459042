package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"plp_smartgrade/backend/internal/shared"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// LoginMail is the content of a one-time login email
type LoginMail struct {
	ToEmail   string
	ToName    string
	Code      string
	MagicLink string
	ExpiresAt time.Time
}

// Mailer delivers login codes
type Mailer interface {
	SendLoginCode(ctx context.Context, msg LoginMail) error
}

// NewMailer returns a SendGrid mailer when an API key is configured and a
// log-only mailer otherwise.
func NewMailer(cfg shared.MailConfig, logger *slog.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return &LogMailer{logger: logger}
	}
	return NewSendGridMailer(cfg)
}

// SendGridMailer sends login codes through the SendGrid v3 API
type SendGridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer creates a SendGridMailer
func NewSendGridMailer(cfg shared.MailConfig) *SendGridMailer {
	return &SendGridMailer{
		key:        cfg.SendGridAPIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		subjPrefix: "[" + cfg.FromName + "] ",
	}
}

func (m *SendGridMailer) prepare(msg LoginMail) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + "Your login code"
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	text, html := renderLoginMail(msg)

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)
	return v3
}

// SendLoginCode posts the message to SendGrid
func (m *SendGridMailer) SendLoginCode(_ context.Context, msg LoginMail) error {
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending login code: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending login code: sendgrid returned %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer writes login codes to the log. Used in development.
type LogMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

// SendLoginCode logs the code and magic link
func (m *LogMailer) SendLoginCode(_ context.Context, msg LoginMail) error {
	logger := m.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("login code issued",
		"email", msg.ToEmail,
		"code", msg.Code,
		"magic_link", msg.MagicLink,
		"expires_at", msg.ExpiresAt)
	return nil
}

func renderLoginMail(msg LoginMail) (text, html string) {
	expires := msg.ExpiresAt.Format("3:04 PM")
	text = fmt.Sprintf("Hi %s,\n\nYour PLP SmartGrade login code is %s.\n"+
		"You can also sign in with this link: %s\n\nThe code expires at %s.\n",
		msg.ToName, msg.Code, msg.MagicLink, expires)
	html = fmt.Sprintf("<p>Hi %s,</p><p>Your PLP SmartGrade login code is <strong>%s</strong>.</p>"+
		"<p><a href=\"%s\">Sign in</a></p><p>The code expires at %s.</p>",
		msg.ToName, msg.Code, msg.MagicLink, expires)
	return text, html
}
