package notify

import (
	"context"
	"fmt"

	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// EmailChannel delivers messages over SMTP. In-app recipients are resolved
// to their account emails; Message.Emails addresses are added as-is.
type EmailChannel struct {
	db     *gorm.DB
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewEmailChannel creates an SMTP channel from mail settings.
func NewEmailChannel(db *gorm.DB, cfg config.MailConfig) *EmailChannel {
	return &EmailChannel{
		db:     db,
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (c *EmailChannel) Name() string { return "email" }

// Send delivers one mail per recipient.
func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	recipients := append([]string{}, msg.Emails...)

	if len(msg.UserIDs) > 0 {
		var emails []string
		if err := c.db.Model(&models.User{}).
			Where("id IN ?", msg.UserIDs).
			Pluck("email", &emails).Error; err != nil {
			return fmt.Errorf("resolve recipient emails: %w", err)
		}
		recipients = append(recipients, emails...)
	}

	for _, to := range recipients {
		if to == "" {
			continue
		}
		m := gomail.NewMessage()
		m.SetHeader("From", c.cfg.From)
		m.SetHeader("To", to)
		m.SetHeader("Subject", msg.Title)
		m.SetBody("text/plain", msg.Body)
		if err := c.dialer.DialAndSend(m); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}
	return nil
}
