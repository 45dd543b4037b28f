package service

import (
	"fmt"

	"github.com/lmorrow/quizforge/config"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer delivers quiz invitations. Link minting never depends on delivery
// succeeding; a send failure is reported per recipient and nothing more.
type Mailer interface {
	Enabled() bool
	SendQuizLink(to, quizTitle, url string, maxAttempts int) error
}

type smtpMailer struct {
	cfg config.SMTP
}

func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP host not configured, mail delivery disabled")
	}
	return &smtpMailer{cfg: cfg.SMTP}
}

func (m *smtpMailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *smtpMailer) SendQuizLink(to, quizTitle, url string, maxAttempts int) error {
	if !m.Enabled() {
		return fmt.Errorf("mail delivery disabled: SMTP host not configured")
	}

	attemptsWord := "attempts"
	if maxAttempts == 1 {
		attemptsWord = "attempt"
	}
	body := fmt.Sprintf(
		"<p>Hi,</p><p>Your quiz <strong>%s</strong> is ready. You have %d %s.</p><p><a href=%q>Start your quiz</a></p><p>Good luck!</p>",
		quizTitle, maxAttempts, attemptsWord, url)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Your quiz is ready: %s", quizTitle))
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send quiz link email")
		return err
	}
	log.Info().Str("to", to).Str("quiz", quizTitle).Msg("Quiz link email sent")
	return nil
}
