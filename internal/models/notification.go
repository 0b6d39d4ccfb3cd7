package models

import (
	"time"

	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// Notification is unique per user by message text.
type Notification struct {
	Owner
	NotificationType string `json:"notification_type,omitempty"`
	Message          string `json:"message"`
	IsRead           bool   `json:"is_read"`
	IsValid          *bool  `json:"is_valid,omitempty"`
}

func (n *Notification) UniqueKey() string { return n.Message }

func (n *Notification) ApplyDefaults(time.Time) {
	if n.IsValid == nil {
		valid := true
		n.IsValid = &valid
	}
}

func (n *Notification) Validate() error {
	return utils.Required("message", n.Message)
}

type NotificationPatch struct {
	NotificationType patch.Optional[string] `json:"notification_type"`
	Message          patch.Optional[string] `json:"message"`
	IsRead           patch.Optional[bool]   `json:"is_read"`
	IsValid          patch.Optional[bool]   `json:"is_valid"`
}

func (p NotificationPatch) Document() (patch.Document, error) {
	if err := optionalRequired("message", p.Message); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "notification_type", p.NotificationType)
	patch.Field(b, "message", p.Message)
	patch.Field(b, "is_read", p.IsRead)
	patch.Field(b, "is_valid", p.IsValid)
	return b.Build()
}
