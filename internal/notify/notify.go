// Package notify fans business events out to the in-app inbox and to
// delivery channels (email, web push, staff chat). Delivery is best-effort
// and always outside the transaction of the state change it announces.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"

	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// Message is a single notification to fan out.
type Message struct {
	UserIDs  []uint            // in-app inbox recipients (staff)
	Emails   []string          // external email recipients (clients)
	Title    string
	Body     string
	Category string // e.g. "budget", "payment", "delivery"
	Metadata map[string]string
}

// Channel is a delivery backend. Implementations must not block on the
// caller's business transaction.
type Channel interface {
	// Name identifies the channel in logs.
	Name() string

	// Send delivers the message. Errors are logged by the dispatcher,
	// never surfaced to the caller.
	Send(ctx context.Context, msg Message) error
}

// Dispatcher writes in-app notification rows and fans out to channels.
type Dispatcher struct {
	db       *gorm.DB
	channels []Channel
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(db *gorm.DB, channels ...Channel) *Dispatcher {
	return &Dispatcher{db: db, channels: channels}
}

// Notify records the message for each in-app recipient and sends it through
// every channel. Fire-and-forget: a failed channel never fails the caller.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if d == nil {
		return
	}

	meta := "{}"
	if len(msg.Metadata) > 0 {
		if b, err := json.Marshal(msg.Metadata); err == nil {
			meta = string(b)
		}
	}

	for _, uid := range msg.UserIDs {
		row := models.Notification{
			UserID:   uid,
			Title:    msg.Title,
			Message:  msg.Body,
			Category: msg.Category,
			Metadata: meta,
		}
		if err := d.db.Create(&row).Error; err != nil {
			log.Printf("notify: inbox row for user %d: %v", uid, err)
		}
	}

	for _, ch := range d.channels {
		if err := ch.Send(ctx, msg); err != nil {
			log.Printf("notify: %s: %v", ch.Name(), err)
		}
	}
}

// NotifyStaff sends a message to every staff account.
func (d *Dispatcher) NotifyStaff(ctx context.Context, title, body, category string, metadata map[string]string) {
	if d == nil {
		return
	}
	var ids []uint
	if err := d.db.Model(&models.User{}).
		Where("role IN ?", []string{models.RoleAdmin, models.RoleTeamMember}).
		Pluck("id", &ids).Error; err != nil {
		log.Printf("notify: list staff: %v", err)
	}
	d.Notify(ctx, Message{UserIDs: ids, Title: title, Body: body, Category: category, Metadata: metadata})
}

// WhatsAppLink builds a wa.me deep link with prefilled text. The link is
// prepared for a human to open, never auto-sent.
func WhatsAppLink(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(text)
}
