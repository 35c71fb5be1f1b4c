// Package mailer sends invitation mail over SMTP. With no SMTP host
// configured it degrades to logging the invite link.
package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	appBaseURL string
	logger     *zap.Logger
}

func New(host string, port int, user, password, from, appBaseURL string, logger *zap.Logger) *Mailer {
	m := &Mailer{
		from:       from,
		appBaseURL: appBaseURL,
		logger:     logger,
	}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, user, password)
	}
	return m
}

// SendInvitation mails the join link for a household invitation.
func (m *Mailer) SendInvitation(to, householdName, token string) error {
	link := fmt.Sprintf("%s/invitations/%s", m.appBaseURL, token)

	if m.dialer == nil {
		m.logger.Info("SMTP not configured, logging invitation link",
			zap.String("to", to),
			zap.String("link", link))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("「%s」への招待", householdName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"家計簿「%s」に招待されました。\n以下のリンクから参加してください:\n%s\n",
		householdName, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invitation mail: %w", err)
	}
	return nil
}
