package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// PushChannel delivers messages to the browser push subscriptions of the
// in-app recipients.
type PushChannel struct {
	db  *gorm.DB
	cfg config.PushConfig
}

// NewPushChannel creates a web-push channel from VAPID settings.
func NewPushChannel(db *gorm.DB, cfg config.PushConfig) *PushChannel {
	return &PushChannel{db: db, cfg: cfg}
}

func (c *PushChannel) Name() string { return "push" }

// Send pushes the payload to every subscription of every recipient. A dead
// subscription is logged and skipped, not treated as a channel failure.
func (c *PushChannel) Send(ctx context.Context, msg Message) error {
	if len(msg.UserIDs) == 0 {
		return nil
	}

	var subs []models.PushSubscription
	if err := c.db.Where("user_id IN ?", msg.UserIDs).Find(&subs).Error; err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"title":    msg.Title,
		"body":     msg.Body,
		"category": msg.Category,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	for _, s := range subs {
		sub := &webpush.Subscription{
			Endpoint: s.Endpoint,
			Keys:     webpush.Keys{P256dh: s.P256dh, Auth: s.Auth},
		}
		resp, err := webpush.SendNotification(payload, sub, &webpush.Options{
			Subscriber:      c.cfg.Subscriber,
			VAPIDPublicKey:  c.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: c.cfg.VAPIDPrivateKey,
			TTL:             60,
		})
		if err != nil {
			log.Printf("notify: push to subscription %d: %v", s.ID, err)
			continue
		}
		resp.Body.Close()
	}
	return nil
}
