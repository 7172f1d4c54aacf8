// Package mailer provides the outbound notification capability. The underlying
// SMTP client is built lazily on first send and reused for the process lifetime.
package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"roamio/pkg/logger"
)

// Result reports a single accepted delivery. Reference is the message ID the
// caller can surface to observe delivery status.
type Result struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference"`
}

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) (*Result, error)
}

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type smtpSender struct {
	cfg Config
	log *logger.Logger

	once    sync.Once
	client  *mail.Client
	initErr error
}

func NewSMTPSender(cfg Config, log *logger.Logger) Sender {
	return &smtpSender{
		cfg: cfg,
		log: log,
	}
}

func (s *smtpSender) init() {
	if s.cfg.Host == "" {
		s.initErr = fmt.Errorf("smtp host not configured")
		return
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" && s.cfg.Pass != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Pass),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		s.initErr = fmt.Errorf("failed to build smtp client: %w", err)
		return
	}

	s.client = client
	s.log.Info("SMTP client initialized", "host", s.cfg.Host, "port", s.cfg.Port)
}

func (s *smtpSender) Send(ctx context.Context, to, subject, htmlBody string) (*Result, error) {
	s.once.Do(s.init)
	if s.initErr != nil {
		return nil, s.initErr
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}

	reference := uuid.NewString()
	msg.SetMessageIDWithValue(reference)
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return &Result{Accepted: true, Reference: reference}, nil
}
